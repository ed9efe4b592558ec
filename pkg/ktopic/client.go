package ktopic

import (
	"encoding/binary"
	"regexp"
	"sync"
	"sync/atomic"
	"time"
)

// Client is the context object this core's operations are methods on: it
// owns the topic registry, the client-level reader-writer lock that
// guards it and the broker directory, the role tag, the default topic
// configuration, and the termination flag. Per spec §9's "global client
// state" note, there is deliberately no package-level singleton — every
// operation takes a *Client explicitly.
type Client struct {
	role            Role
	defaultConfig   TopicConfig
	blacklist       *regexp.Regexp
	refreshInterval time.Duration

	mu     sync.RWMutex
	topics map[string]*Topic

	brokers BrokerDirectory

	terminating int32 // atomic bool

	logger            Logger
	metrics           *Metrics
	deliveryReporter  DeliveryReporter
	consumerErrorSink ConsumerErrorSink
	leaderQueryer     LeaderQueryer
}

// NewClient constructs a Client with the given role and options. It
// mirrors the teacher's own NewClient(opts ...Opt) shape: options
// accumulate into a private cfg, which is then validated (the blacklist
// patterns must compile) before any state is built.
func NewClient(role Role, opts ...ClientOption) (*Client, error) {
	cfg := defaultClientCfg()
	cfg.role = role
	for _, o := range opts {
		o(&cfg)
	}

	blacklist, err := compileBlacklist(cfg.blacklistPatterns)
	if err != nil {
		return nil, err
	}

	brokers := cfg.brokers
	if brokers == nil {
		brokers = StaticBrokerDirectory{}
	}
	logger := cfg.logger
	if logger == nil {
		logger = nopLogger{}
	}

	c := &Client{
		role:              cfg.role,
		defaultConfig:     buildTopicConfig(cfg.defaultTopicConfig),
		blacklist:         blacklist,
		refreshInterval:   cfg.metadataRefreshInterval,
		topics:            make(map[string]*Topic),
		brokers:           brokers,
		logger:            logger,
		metrics:           cfg.metrics,
		deliveryReporter:  cfg.deliveryReporter,
		consumerErrorSink: cfg.consumerErrorSink,
		leaderQueryer:     cfg.leaderQueryer,
	}
	return c, nil
}

// Role returns the client's producer/consumer role.
func (c *Client) Role() Role { return c.role }

// Terminate flips the client-wide termination flag; subsequent metadata
// applications and scans short-circuit once they observe it, per §5's
// cancellation model.
func (c *Client) Terminate() { atomic.StoreInt32(&c.terminating, 1) }

func (c *Client) isTerminating() bool { return atomic.LoadInt32(&c.terminating) == 1 }

// findTopic returns a new strong reference to the topic named name, if
// one is currently registered.
func (c *Client) findTopic(name string) (*Topic, bool) {
	c.mu.RLock()
	t, ok := c.topics[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	t.acquire()
	return t, true
}

// FindTopic is the registry's find(name) operation: a byte-exact lookup
// returning a fresh strong reference, or false if no such topic is known.
func (c *Client) FindTopic(name string) (*Topic, bool) {
	return c.findTopic(name)
}

// FindTopicByProtocolString decodes a Kafka-protocol length-prefixed
// string (a big-endian int16 length followed by that many bytes) and
// looks it up the same way FindTopic does.
func (c *Client) FindTopicByProtocolString(b []byte) (*Topic, bool) {
	if len(b) < 2 {
		return nil, false
	}
	n := int16(binary.BigEndian.Uint16(b))
	if n < 0 || int(2+n) > len(b) {
		return nil, false
	}
	return c.findTopic(string(b[2 : 2+n]))
}

// CreateTopic is the registry's create(name, config?) operation: a
// find-or-insert under the client write lock. On an invalid name it
// fails synchronously with InvalidArgError; otherwise it returns the
// (possibly pre-existing) topic and whether it already existed. If the
// topic already existed, cfg is discarded.
func (c *Client) CreateTopic(name string, cfg *TopicConfig) (*Topic, bool, error) {
	if len(name) < 1 || len(name) > 512 {
		return nil, false, &InvalidArgError{Name: name}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.topics[name]; ok {
		t.acquire()
		return t, true, nil
	}

	use := c.defaultConfig
	if cfg != nil {
		use = buildTopicConfig(*cfg)
	}
	t := newTopic(c, name, use)
	c.topics[name] = t
	c.metrics.incTopics()
	return t, false, nil
}

// removeTopic is the registry's remove(handle) operation, driven solely
// by a topic's refcount reaching zero.
func (c *Client) removeTopic(t *Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.topics[t.name]; ok && cur == t {
		delete(c.topics, t.name)
		c.metrics.decTopics()
	}
}

// Names returns a snapshot of every topic name currently registered.
func (c *Client) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.topics))
	for name := range c.topics {
		out = append(out, name)
	}
	return out
}

// lookupBrokers resolves a batch of broker node ids under the client read
// lock, skipping -1 (no leader) and returning only the ids it could
// resolve. Per §4.C, all such lookups for one metadata batch happen
// before any topic lock is taken.
func (c *Client) lookupBrokers(ids []int32) map[int32]Broker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int32]Broker, len(ids))
	for _, id := range ids {
		if id == -1 {
			continue
		}
		if b, ok := c.brokers.FindByNodeID(id); ok {
			out[id] = b
		}
	}
	return out
}

// PartitionAvailable implements the routing collaborator
// partition_available(topic, id): true iff a partition with that id
// exists in the topic's table and currently has a leader.
func (c *Client) PartitionAvailable(t *Topic, id int32) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id < 0 || id >= int32(len(t.partitions)) {
		return false
	}
	p := t.partitions[id]
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leader != nil
}

// TopicNew is the application-facing topic_new(client, name, config?)
// operation: it creates (or finds) the topic and publishes the single
// application handle alias for it.
func (c *Client) TopicNew(name string, opts ...TopicOption) (*Topic, error) {
	cfg := buildTopicConfig(c.defaultConfig, opts...)
	t, _, err := c.CreateTopic(name, &cfg)
	if err != nil {
		return nil, err
	}
	t.publishAppHandle()
	t.release() // the reference CreateTopic returned; publishAppHandle took its own
	return t, nil
}

// TopicDestroy is the application-facing topic_destroy(handle) operation.
func TopicDestroy(t *Topic) { t.releaseAppHandle() }

// TopicName is the application-facing topic_name(handle) operation.
func TopicName(t *Topic) string { return t.Name() }

// TopicOpaque is the application-facing topic_opaque(handle) operation.
func TopicOpaque(t *Topic) interface{} { return t.Opaque() }

func (c *Client) deliverMessages(topic string, msgs []*Message, kind ErrorKind) {
	if len(msgs) == 0 {
		return
	}
	if c.deliveryReporter != nil {
		c.deliveryReporter.DeliverMessageQueue(topic, msgs, kind)
	}
}

func (c *Client) notifyPartitionError(topic string, partitionID int32, kind ErrorKind) {
	if c.consumerErrorSink != nil {
		c.consumerErrorSink.PartitionError(topic, partitionID, kind)
	}
}

func (c *Client) queryLeader(topic string) {
	if c.leaderQueryer != nil {
		c.leaderQueryer.QueryLeader(topic)
	}
}

// RefreshInterval returns the metadata staleness window configured at
// construction (spec §4.F); a zero or negative value disables the
// scanner's staleness check entirely.
func (c *Client) RefreshInterval() time.Duration { return c.refreshInterval }
