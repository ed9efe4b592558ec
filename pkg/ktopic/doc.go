// Package ktopic implements the topic-metadata and partition-routing core
// shared by producer and consumer clients of a distributed log-based
// message broker: a concurrency-safe topic registry, the per-topic
// existence state machine, partition table growth and shrink, unassigned
// (UA) message routing through a pluggable Partitioner, metadata ingest,
// and periodic timeout/staleness scanning.
//
// It deliberately excludes everything upstream or downstream of that
// core: wire protocol encoding, broker connection management, consumer
// group coordination, and the actual record batch compression codecs
// (though it resolves and wires the codec a topic should use).
package ktopic
