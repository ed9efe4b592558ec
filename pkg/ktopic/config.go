package ktopic

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Role is whether a Client is acting as a producer or a consumer. UA
// reassignment only runs for producers; desired-partition tracking and its
// NotExists propagation only apply to consumers.
type Role int8

const (
	RoleProducer Role = iota
	RoleConsumer
)

func (r Role) String() string {
	if r == RoleConsumer {
		return "consumer"
	}
	return "producer"
}

// TopicConfig holds the per-topic settings named in the spec's Config
// collaborator: partitioner, compression codec, an opaque user pointer,
// and (for consumers) the set of partitions desired by id up front. It is
// copied into a Topic at construction and is immutable thereafter; there
// are no reconfiguration APIs in this core.
type TopicConfig struct {
	Partitioner       Partitioner
	CompressionCodec  CompressionCodec
	Opaque            interface{}
	DesiredPartitions []int32
	AutoCreateTopics  bool // broker-side effect only; stored for completeness
}

func defaultTopicConfig() TopicConfig {
	return TopicConfig{
		Partitioner:      DefaultPartitioner(),
		CompressionCodec: CompressionInherit,
	}
}

// TopicOption mutates a TopicConfig before it is attached to a new Topic.
type TopicOption func(*TopicConfig)

func WithPartitioner(p Partitioner) TopicOption {
	return func(c *TopicConfig) { c.Partitioner = p }
}

func WithCompressionCodec(codec CompressionCodec) TopicOption {
	return func(c *TopicConfig) { c.CompressionCodec = codec }
}

func WithOpaque(v interface{}) TopicOption {
	return func(c *TopicConfig) { c.Opaque = v }
}

func WithDesiredPartitions(ids ...int32) TopicOption {
	return func(c *TopicConfig) { c.DesiredPartitions = append([]int32(nil), ids...) }
}

func WithAutoCreateTopics(enable bool) TopicOption {
	return func(c *TopicConfig) { c.AutoCreateTopics = enable }
}

func buildTopicConfig(base TopicConfig, opts ...TopicOption) TopicConfig {
	for _, o := range opts {
		o(&base)
	}
	if base.Partitioner == nil {
		base.Partitioner = DefaultPartitioner()
	}
	return base
}

// clientCfg accumulates ClientOption values before NewClient validates and
// freezes them into a Client, the same two-phase shape the teacher's own
// cfg/Opt pair uses (opt.apply(&cfg), then cfg.validate()).
type clientCfg struct {
	role                    Role
	defaultTopicConfig      TopicConfig
	brokers                 BrokerDirectory
	blacklistPatterns       []string
	metadataRefreshInterval time.Duration
	logger                  Logger
	metrics                 *Metrics
	deliveryReporter        DeliveryReporter
	consumerErrorSink       ConsumerErrorSink
	leaderQueryer           LeaderQueryer
}

func defaultClientCfg() clientCfg {
	return clientCfg{
		role:                    RoleProducer,
		defaultTopicConfig:      defaultTopicConfig(),
		metadataRefreshInterval: 5 * time.Minute,
		logger:                  nopLogger{},
	}
}

// ClientOption mutates a Client's configuration before construction.
type ClientOption func(*clientCfg)

func WithRole(r Role) ClientOption {
	return func(c *clientCfg) { c.role = r }
}

func WithDefaultTopicConfig(cfg TopicConfig) ClientOption {
	return func(c *clientCfg) { c.defaultTopicConfig = cfg }
}

func WithBrokerDirectory(d BrokerDirectory) ClientOption {
	return func(c *clientCfg) { c.brokers = d }
}

// WithTopicBlacklist sets the client-wide set of topic name patterns
// ignored at metadata ingest (spec §4.D step 1). Patterns are plain RE2
// regular expressions, joined with "|"; a pattern matches anywhere in the
// topic name unless it is anchored with ^ or $.
func WithTopicBlacklist(patterns ...string) ClientOption {
	return func(c *clientCfg) { c.blacklistPatterns = append([]string(nil), patterns...) }
}

func WithMetadataRefreshInterval(d time.Duration) ClientOption {
	return func(c *clientCfg) { c.metadataRefreshInterval = d }
}

func WithLogger(l Logger) ClientOption {
	return func(c *clientCfg) { c.logger = l }
}

func WithMetrics(m *Metrics) ClientOption {
	return func(c *clientCfg) { c.metrics = m }
}

func WithDeliveryReporter(d DeliveryReporter) ClientOption {
	return func(c *clientCfg) { c.deliveryReporter = d }
}

func WithConsumerErrorSink(s ConsumerErrorSink) ClientOption {
	return func(c *clientCfg) { c.consumerErrorSink = s }
}

func WithLeaderQueryer(q LeaderQueryer) ClientOption {
	return func(c *clientCfg) { c.leaderQueryer = q }
}

func compileBlacklist(patterns []string) (*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	joined := strings.Join(patterns, "|")
	re, err := regexp.Compile(joined)
	if err != nil {
		return nil, fmt.Errorf("ktopic: invalid topic blacklist pattern: %w", err)
	}
	return re, nil
}
