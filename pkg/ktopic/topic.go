package ktopic

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is a Topic's place in the state machine from spec §4.B.
type State int8

const (
	// StateUnknown is the initial state: no metadata seen yet, or the
	// last metadata applied has gone stale.
	StateUnknown State = iota
	// StateExists means the last metadata applied confirmed at least
	// one partition.
	StateExists
	// StateNotExists means the last metadata applied confirmed the
	// topic's absence (or it was never mentioned at all).
	StateNotExists
)

func (s State) String() string {
	switch s {
	case StateExists:
		return "Exists"
	case StateNotExists:
		return "NotExists"
	default:
		return "Unknown"
	}
}

// Topic is the per-topic handle this core hands to producers and
// consumers: its name, configuration, state, partition table, UA
// partition, and desired-partition set. All mutable fields are guarded by
// mu, a reader-writer lock taken after the owning Client's lock and
// before any Partition's lock, per the global client -> topic -> partition
// order.
type Topic struct {
	client *Client
	name   string
	config TopicConfig

	mu         sync.RWMutex
	state      State
	partitions []*Partition
	ua         *Partition
	desired    map[int32]*Partition
	tsMetadata time.Time

	refcnt    int32 // atomic; one per outstanding strong reference (creator's, each find's, app handle's while published)
	published int32 // atomic bool
}

func newTopic(c *Client, name string, cfg TopicConfig) *Topic {
	t := &Topic{
		client:  c,
		name:    name,
		config:  cfg,
		desired: make(map[int32]*Partition),
		refcnt:  1,
	}
	t.ua = newPartition(t, UA)
	for _, id := range cfg.DesiredPartitions {
		t.desired[id] = newDesiredPartition(t, id)
	}
	return t
}

// Name returns the topic's name.
func (t *Topic) Name() string { return t.name }

// Opaque returns the user pointer stashed in this topic's configuration.
func (t *Topic) Opaque() interface{} { return t.config.Opaque }

// State returns the topic's current state.
func (t *Topic) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// PartitionCount returns the topic's current partition_cnt.
func (t *Topic) PartitionCount() int32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int32(len(t.partitions))
}

// Partition returns the Partition handle at id, if it is currently present
// in the topic's partition table (not merely desired).
func (t *Topic) Partition(id int32) (*Partition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id < 0 || id >= int32(len(t.partitions)) {
		return nil, false
	}
	return t.partitions[id], true
}

// UA returns the topic's unassigned-partition handle, always non-nil for a
// live topic.
func (t *Topic) UA() *Partition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ua
}

// Desired returns a snapshot of the partitions currently desired-but-absent
// by id.
func (t *Topic) Desired() map[int32]*Partition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[int32]*Partition, len(t.desired))
	for id, p := range t.desired {
		out[id] = p
	}
	return out
}

func (t *Topic) acquire() { atomic.AddInt32(&t.refcnt, 1) }

// release drops a strong reference; once it reaches zero the topic
// unlinks itself from its client's registry.
func (t *Topic) release() {
	if atomic.AddInt32(&t.refcnt, -1) == 0 {
		t.client.removeTopic(t)
	}
}

// publishAppHandle grants (or re-uses) the single application-facing
// alias for this topic, adding one strong reference the first time it is
// called. Matches spec §9's "single handle type with a published flag"
// resolution of the source's dual internal/application handle design.
func (t *Topic) publishAppHandle() {
	if atomic.CompareAndSwapInt32(&t.published, 0, 1) {
		t.acquire()
	}
}

// releaseAppHandle releases the application-facing alias, dropping the
// reference publishAppHandle added, if it was ever published.
func (t *Topic) releaseAppHandle() {
	if atomic.CompareAndSwapInt32(&t.published, 1, 0) {
		t.release()
	}
}

func (t *Topic) setStateLocked(s State) {
	if t.state == s {
		return
	}
	t.client.logger.Log(LogLevelInfo, "topic state change", "topic", t.name, "from", t.state.String(), "to", s.String())
	t.state = s
	t.client.metrics.markState(s)
}

// partitionCountUnlocked and availablePartitionIDsUnlocked assume the
// caller already holds t.mu; they back PartitionSnapshot construction
// during UA reassignment, which runs inside an already-held topic write
// lock and so must never call back into Topic's own locking methods.

func (t *Topic) partitionCountUnlocked() int32 { return int32(len(t.partitions)) }

func (t *Topic) availablePartitionIDsUnlocked() []int32 {
	avail := make([]int32, 0, len(t.partitions))
	for _, p := range t.partitions {
		p.mu.Lock()
		has := p.leader != nil
		p.mu.Unlock()
		if has {
			avail = append(avail, p.id)
		}
	}
	return avail
}

func (t *Topic) snapshotLocked() PartitionSnapshot {
	return PartitionSnapshot{
		PartitionCount: t.partitionCountUnlocked(),
		Available:      t.availablePartitionIDsUnlocked(),
	}
}

// resizeLocked implements §4.C's "resize to N": grow in place reusing
// existing or previously-desired partitions, migrate a shrinking tail's
// messages into ua (or synthesize failures if ua is somehow absent), and
// re-notify every partition still left in desired. Caller must hold t.mu
// for writing. Returns whether partition_cnt actually changed.
func (t *Topic) resizeLocked(n int32) bool {
	oldCnt := int32(len(t.partitions))
	if n == oldCnt {
		return false
	}

	newParts := make([]*Partition, n)
	for i := int32(0); i < n; i++ {
		switch {
		case i < oldCnt:
			newParts[i] = t.partitions[i]
		default:
			p, ok := t.desired[i]
			if ok {
				p.mu.Lock()
				ok = p.hasFlagLocked(flagUnknown)
				if ok {
					p.clearFlagLocked(flagUnknown)
				}
				p.mu.Unlock()
			}
			if ok {
				delete(t.desired, i)
				newParts[i] = p
			} else {
				newParts[i] = newPartition(t, i)
			}
		}
	}

	if t.ua == nil {
		t.client.logger.Log(LogLevelError, "topic missing ua partition during resize", "topic", t.name)
	}

	if len(t.desired) > 0 {
		for id, p := range t.desired {
			p.mu.Lock()
			p.enqueueErrorLocked(ErrUnknownPartition)
			p.mu.Unlock()
			t.client.notifyPartitionError(t.name, id, ErrUnknownPartition)
		}
	}

	var failed []*Message
	for j := n; j < oldCnt; j++ {
		p := t.partitions[j]
		p.mu.Lock()
		p.delegateLeaderLocked(nil)
		moved := p.drainQueuesLocked()
		isDesired := p.hasFlagLocked(flagDesired)
		if isDesired {
			p.setFlagLocked(flagUnknown)
		}
		p.mu.Unlock()

		if t.ua != nil {
			t.ua.mu.Lock()
			t.ua.enqueueAllLocked(moved)
			t.ua.mu.Unlock()
		} else {
			failed = append(failed, moved...)
		}

		if isDesired {
			t.desired[j] = p
			p.mu.Lock()
			p.enqueueErrorLocked(ErrUnknownPartition)
			p.mu.Unlock()
			t.client.notifyPartitionError(t.name, j, ErrUnknownPartition)
		}
	}

	t.partitions = newParts

	if len(failed) > 0 {
		t.client.deliverMessages(t.name, failed, ErrUnknownPartition)
	}

	return true
}

// leaderUpdateResult is the three-way outcome of updateLeaderLocked.
type leaderUpdateResult int8

const (
	leaderNoChange leaderUpdateResult = iota
	leaderChanged
	leaderUnknown
)

// updateLeaderLocked implements §4.C's leader-update procedure for one
// partition id. Caller must hold t.mu for writing.
func (t *Topic) updateLeaderLocked(partitionID int32, broker Broker, hasBroker bool) leaderUpdateResult {
	if partitionID < 0 || partitionID >= int32(len(t.partitions)) {
		t.client.logger.Log(LogLevelWarn, "leader update for unknown partition", "topic", t.name, "partition", partitionID)
		return leaderUnknown
	}
	p := t.partitions[partitionID]
	p.mu.Lock()
	defer p.mu.Unlock()

	if !hasBroker {
		had := p.leader != nil
		p.delegateLeaderLocked(nil)
		if had {
			return leaderUnknown
		}
		return leaderNoChange
	}
	if p.leader == broker {
		return leaderNoChange
	}
	p.delegateLeaderLocked(broker)
	return leaderChanged
}

// blackoutLocked delegates every existing partition's leader to none; used
// when a metadata application reports a topic-wide error with a non-zero
// partition count already on file.
func (t *Topic) blackoutLocked() {
	for _, p := range t.partitions {
		p.mu.Lock()
		p.delegateLeaderLocked(nil)
		p.mu.Unlock()
	}
}
