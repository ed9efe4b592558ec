package ktopic

import (
	"sync"
	"time"
)

type partitionFlags uint8

const (
	flagDesired partitionFlags = 1 << iota
	flagUnknown
)

// Partition is one shard of a Topic: its id, current leader, and the two
// message queues a shrinking resize or a timeout scan might move messages
// out of. Partition holds only a back-reference to its Topic (it does not
// keep the Topic alive); the Topic is what owns the strong reference to
// each Partition, directly in its reachable from exactly one of
// partitions/ua/desired per the spec's invariant 3.
//
// All mutable fields are guarded by mu; callers across this package take
// mu after any topic lock they hold, respecting the client -> topic ->
// partition order.
type Partition struct {
	topic *Topic
	id    int32

	mu     sync.Mutex
	leader Broker
	flags  partitionFlags

	xmitMsgQ []*Message
	msgQ     []*Message
	errs     []ErrorKind
}

func newPartition(t *Topic, id int32) *Partition {
	return &Partition{topic: t, id: id}
}

func newDesiredPartition(t *Topic, id int32) *Partition {
	p := newPartition(t, id)
	p.flags = flagDesired | flagUnknown
	return p
}

// ID returns the partition's index within its topic, or UA for the
// unassigned-partition handle.
func (p *Partition) ID() int32 { return p.id }

// Topic returns the owning Topic. The reference is a back-pointer only;
// holding it does not keep the Topic alive.
func (p *Partition) Topic() *Topic { return p.topic }

// Leader returns the partition's current leader broker, and whether one
// is assigned at all.
func (p *Partition) Leader() (Broker, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leader, p.leader != nil
}

// Errors returns a snapshot of the per-partition errors enqueued for this
// (necessarily desired) partition, e.g. repeated UnknownPartition
// notifications while it remains absent from the table.
func (p *Partition) Errors() []ErrorKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ErrorKind(nil), p.errs...)
}

func (p *Partition) delegateLeaderLocked(b Broker) {
	p.leader = b
}

func (p *Partition) hasFlagLocked(f partitionFlags) bool { return p.flags&f != 0 }
func (p *Partition) setFlagLocked(f partitionFlags)      { p.flags |= f }
func (p *Partition) clearFlagLocked(f partitionFlags)    { p.flags &^= f }

func (p *Partition) enqueueLocked(m *Message) {
	p.msgQ = append(p.msgQ, m)
}

func (p *Partition) enqueueAllLocked(ms []*Message) {
	p.msgQ = append(p.msgQ, ms...)
}

func (p *Partition) enqueueErrorLocked(kind ErrorKind) {
	p.errs = append(p.errs, kind)
}

// drainQueuesLocked empties both queues and returns their contents in
// send order: whatever was already being transmitted (xmitMsgQ) ahead of
// whatever was only ever buffered (msgQ).
func (p *Partition) drainQueuesLocked() []*Message {
	if len(p.xmitMsgQ) == 0 && len(p.msgQ) == 0 {
		return nil
	}
	out := make([]*Message, 0, len(p.xmitMsgQ)+len(p.msgQ))
	out = append(out, p.xmitMsgQ...)
	out = append(out, p.msgQ...)
	p.xmitMsgQ = nil
	p.msgQ = nil
	return out
}

// drainMsgQLocked empties and returns only the buffered (non-transmitting)
// queue; used by UA, which never transmits.
func (p *Partition) drainMsgQLocked() []*Message {
	out := p.msgQ
	p.msgQ = nil
	return out
}

// ageScanLocked moves any message older than its deadline, in either
// queue, into *out, preserving the relative order of what remains.
func (p *Partition) ageScanLocked(now time.Time, out *[]*Message) {
	p.xmitMsgQ = ageScanQueue(p.xmitMsgQ, now, out)
	p.msgQ = ageScanQueue(p.msgQ, now, out)
}

func ageScanQueue(q []*Message, now time.Time, out *[]*Message) []*Message {
	if len(q) == 0 {
		return q
	}
	kept := q[:0]
	for _, m := range q {
		if !m.Deadline.IsZero() && now.After(m.Deadline) {
			*out = append(*out, m)
		} else {
			kept = append(kept, m)
		}
	}
	return kept
}
