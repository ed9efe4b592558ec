package ktopic

import (
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// MetadataSnapshot is the per-topic record a broker connection hands this
// core after decoding a metadata response: a topic name, an overall error
// code, and the leader for each partition the broker reported. Decoding
// the wire bytes into this shape is the out-of-scope protocol codec's job.
type MetadataSnapshot struct {
	Topic      string
	ErrorCode  int16
	Partitions []PartitionMetadata
}

// PartitionMetadata is one partition's entry within a MetadataSnapshot.
type PartitionMetadata struct {
	ID       int32
	LeaderID int32 // -1 if no leader is currently known
}

// ApplyMetadata implements §4.D: apply a metadata snapshot for one topic,
// updating its state, partition table, and leader bindings, and fanning
// out any resulting UA routing or NotExists propagation in a single
// critical section. It returns the number of observable changes (upd) and
// whether the snapshot was actually applied; ok is false for every early
// exit the spec calls "unknown" (blacklisted topic, transient empty
// leader-not-available error, topic not locally tracked, or the client
// terminating mid-resolve).
func (c *Client) ApplyMetadata(snap MetadataSnapshot) (upd int, ok bool) {
	if c.blacklist != nil && c.blacklist.MatchString(snap.Topic) {
		return 0, false
	}
	err := kerr.ErrorForCode(snap.ErrorCode)
	if err == kerr.LeaderNotAvailable && len(snap.Partitions) == 0 {
		return 0, false
	}

	t, found := c.findTopic(snap.Topic)
	if !found {
		return 0, false
	}
	defer t.release()

	brokerIDs := make([]int32, 0, len(snap.Partitions))
	for _, pm := range snap.Partitions {
		if pm.LeaderID != -1 {
			brokerIDs = append(brokerIDs, pm.LeaderID)
		}
	}
	brokers := c.lookupBrokers(brokerIDs)

	if c.isTerminating() {
		return 0, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.tsMetadata = time.Now()
	oldState := t.state

	switch {
	case err == kerr.UnknownTopicOrPartition || err == kerr.UnknownServerError:
		t.setStateLocked(StateNotExists)
	case len(snap.Partitions) > 0:
		t.setStateLocked(StateExists)
	}

	var queryLeader bool

	switch {
	case t.state == StateNotExists:
		// A topic confirmed absent always has zero partitions (Invariant
		// 4), whether this particular snapshot carried an explicit
		// UnknownTopicOrPartition/UnknownServerError or simply never
		// reported any partitions for an already-NotExists topic.
		if t.resizeLocked(0) {
			upd++
		}
	case err == nil:
		if t.resizeLocked(int32(len(snap.Partitions))) {
			upd++
		}
	}

	for _, pm := range snap.Partitions {
		broker, hasBroker := brokers[pm.LeaderID]
		switch t.updateLeaderLocked(pm.ID, broker, hasBroker) {
		case leaderChanged:
			upd++
		case leaderUnknown:
			queryLeader = true
		}
	}

	if err != nil && len(t.partitions) > 0 {
		t.blackoutLocked()
	}

	if upd > 0 || t.state == StateNotExists {
		t.reassignUALocked()
	}
	if oldState != t.state && t.state == StateNotExists {
		t.propagateNotExistsLocked()
	}

	if err != nil {
		c.metrics.markMetadataError()
	}
	c.metrics.markMetadataApplied(upd)

	if queryLeader {
		c.queryLeader(t.name)
	}

	return upd, true
}

// ApplyKMsgMetadataTopic adapts one entry of a decoded
// kmsg.MetadataResponse into a MetadataSnapshot and applies it. This is
// the seam at which the out-of-scope wire codec hands this core a single
// topic's worth of metadata.
func (c *Client) ApplyKMsgMetadataTopic(topicMeta *kmsg.MetadataResponseTopic) (int, bool) {
	snap := MetadataSnapshot{
		Topic:      topicMeta.Topic,
		ErrorCode:  topicMeta.ErrorCode,
		Partitions: make([]PartitionMetadata, 0, len(topicMeta.Partitions)),
	}
	for i := range topicMeta.Partitions {
		pm := &topicMeta.Partitions[i]
		snap.Partitions = append(snap.Partitions, PartitionMetadata{
			ID:       pm.Partition,
			LeaderID: pm.Leader,
		})
	}
	return c.ApplyMetadata(snap)
}

// MetadataNone represents the broker having answered a metadata request
// without mentioning this topic at all, which this core treats the same
// as an explicit UnknownTopicOrPartition error (spec §9's preserved
// conflation): the topic becomes NotExists, its partitions are dropped to
// zero, and UA/desired partitions are notified accordingly.
func (c *Client) MetadataNone(t *Topic) {
	if c.isTerminating() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tsMetadata = time.Now()
	t.setStateLocked(StateNotExists)
	t.resizeLocked(0)
	t.reassignUALocked()
	t.propagateNotExistsLocked()

	c.metrics.markMetadataApplied(0)
}
