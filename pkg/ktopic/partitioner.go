package ktopic

import (
	"errors"
	"hash/fnv"
	"math/rand"
)

// ErrNoPartitionAvailable is returned by a Partitioner when no partition
// can be chosen for a message right now (e.g. the topic has no partitions
// with a leader, or a forced partition id is out of range).
var ErrNoPartitionAvailable = errors.New("ktopic: no partition available")

// PartitionerFlags carries routing hints to a Partitioner. It is currently
// unused by DefaultPartitioner but is part of the contract so that future
// flags (e.g. "retry, previous partition was X") don't change the
// Partitioner signature.
type PartitionerFlags uint8

// PartitionSnapshot is a read-only view of a topic's partition table,
// built once under the topic's write lock before a batch of UA messages
// is routed. Partitioner implementations must only use this snapshot and
// must never call back into the *Topic they're given (it is still locked
// by the caller).
type PartitionSnapshot struct {
	// PartitionCount is the topic's current partition_cnt.
	PartitionCount int32
	// Available lists the ids of partitions that currently have a
	// leader, in ascending order.
	Available []int32
}

// Partitioner maps a message to a partition id for a topic, or reports
// that none is available. It is invoked with a snapshot of the partition
// table taken under the topic's write lock; per spec §4.G, if the message
// carries a ForcedPartition other than UA, the partitioner must bypass its
// own routing logic but still validate the forced id against
// snap.PartitionCount.
//
// This mirrors the well-known sarama.Partitioner contract: a stateless
// function of (topic, message, partition count).
type Partitioner func(topic *Topic, msg *Message, snap PartitionSnapshot, flags PartitionerFlags) (int32, error)

// DefaultPartitioner returns the spec-mandated default: consistent hashing
// of the message key via FNV-1a when a key is present, otherwise uniform
// random selection across partitions that currently have a leader. This
// follows sarama's own default hash partitioner, which also hashes with
// hash/fnv rather than pulling in a third-party hash library.
func DefaultPartitioner() Partitioner {
	return func(_ *Topic, msg *Message, snap PartitionSnapshot, _ PartitionerFlags) (int32, error) {
		if msg.ForcedPartition != UA {
			if msg.ForcedPartition < 0 || msg.ForcedPartition >= snap.PartitionCount {
				return 0, ErrNoPartitionAvailable
			}
			return msg.ForcedPartition, nil
		}
		if len(snap.Available) == 0 {
			return 0, ErrNoPartitionAvailable
		}
		if len(msg.Key) > 0 {
			h := fnv.New32a()
			h.Write(msg.Key)
			idx := int(h.Sum32() % uint32(len(snap.Available)))
			return snap.Available[idx], nil
		}
		return snap.Available[rand.Intn(len(snap.Available))], nil
	}
}

// ManualPartitioner returns a Partitioner that never auto-routes: every
// message must carry a ForcedPartition, or routing fails with
// ErrNoPartitionAvailable. Useful for producers that always pin messages
// to a partition chosen upstream.
func ManualPartitioner() Partitioner {
	return func(_ *Topic, msg *Message, snap PartitionSnapshot, _ PartitionerFlags) (int32, error) {
		if msg.ForcedPartition == UA {
			return 0, ErrNoPartitionAvailable
		}
		if msg.ForcedPartition < 0 || msg.ForcedPartition >= snap.PartitionCount {
			return 0, ErrNoPartitionAvailable
		}
		return msg.ForcedPartition, nil
	}
}
