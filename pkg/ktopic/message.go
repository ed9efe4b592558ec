package ktopic

import "time"

// UA is the sentinel partition id for a message that has not yet been
// routed to a real partition.
const UA int32 = -1

// Message is the minimal view of a produced or desired-partition record
// this core needs in order to route, migrate, and time it out. The actual
// record payload and transmission machinery belong to the out-of-scope
// produce/fetch pipelines; this core only ever moves *Message between
// queues and hands it to a DeliveryReporter.
type Message struct {
	Key, Value []byte

	// ForcedPartition is UA unless the caller pinned this message to a
	// specific partition id, bypassing the partitioner (but not its
	// range validation).
	ForcedPartition int32

	// Deadline is when this message should be considered timed out if
	// it is still sitting in a queue. The zero value means "never."
	Deadline time.Time

	enqueuedAt time.Time
}

// NewMessage returns a Message with no forced partition and no deadline.
func NewMessage(key, value []byte) *Message {
	return &Message{
		Key:             key,
		Value:           value,
		ForcedPartition: UA,
		enqueuedAt:      time.Now(),
	}
}

// WithDeadline sets the message's timeout deadline and returns it for
// chaining.
func (m *Message) WithDeadline(d time.Time) *Message {
	m.Deadline = d
	return m
}

// WithForcedPartition pins the message to a specific partition id,
// bypassing the partitioner (the id is still validated against the
// topic's partition count before transmission).
func (m *Message) WithForcedPartition(id int32) *Message {
	m.ForcedPartition = id
	return m
}

// DeliveryReporter receives the terminal-state notification for a batch of
// producer messages that share the same outcome (e.g. all messages evicted
// from a shrinking partition, or all failed UA routing attempts).
type DeliveryReporter interface {
	DeliverMessageQueue(topic string, msgs []*Message, kind ErrorKind)
}

// ConsumerErrorSink receives per-partition error notifications for desired
// (subscribed-but-absent) partitions.
type ConsumerErrorSink interface {
	PartitionError(topic string, partitionID int32, kind ErrorKind)
}

// LeaderQueryer schedules an asynchronous metadata fetch for a topic whose
// leader information this core could not resolve locally. The fetch itself
// (and its eventual application via ApplyMetadata) happens outside this
// core.
type LeaderQueryer interface {
	QueryLeader(topic string)
}
