package ktopic

import "testing"

// Kafka protocol error codes (part of the public wire protocol, stable
// across broker versions): UNKNOWN_TOPIC_OR_PARTITION and
// LEADER_NOT_AVAILABLE.
const (
	errCodeUnknownTopicOrPartition int16 = 3
	errCodeLeaderNotAvailable      int16 = 5
)

func mustCreate(t *testing.T, c *Client, name string) *Topic {
	t.Helper()
	topic, _, err := c.CreateTopic(name, nil)
	if err != nil {
		t.Fatalf("CreateTopic(%q): %v", name, err)
	}
	return topic
}

func TestApplyMetadataGrowsAndSetsLeaders(t *testing.T) {
	c := newTestClient(t, RoleProducer)
	topic := mustCreate(t, c, "orders")

	upd, ok := c.ApplyMetadata(MetadataSnapshot{
		Topic: "orders",
		Partitions: []PartitionMetadata{
			{ID: 0, LeaderID: 1},
			{ID: 1, LeaderID: 1},
			{ID: 2, LeaderID: 2},
		},
	})
	if !ok {
		t.Fatal("expected ApplyMetadata to report ok=true")
	}
	if upd == 0 {
		t.Fatal("expected at least one update on first metadata application")
	}
	if topic.State() != StateExists {
		t.Fatalf("got state %v, want Exists", topic.State())
	}
	if topic.PartitionCount() != 3 {
		t.Fatalf("got partition count %d, want 3", topic.PartitionCount())
	}

	for i, wantLeader := range []int32{1, 1, 2} {
		p, ok := topic.Partition(int32(i))
		if !ok {
			t.Fatalf("partition %d missing", i)
		}
		b, has := p.Leader()
		if !has {
			t.Fatalf("partition %d has no leader", i)
		}
		if b.NodeID() != wantLeader {
			t.Fatalf("partition %d leader = %d, want %d", i, b.NodeID(), wantLeader)
		}
	}
}

func TestApplyMetadataIdempotent(t *testing.T) {
	c := newTestClient(t, RoleProducer)
	_ = mustCreate(t, c, "orders")

	snap := MetadataSnapshot{
		Topic: "orders",
		Partitions: []PartitionMetadata{
			{ID: 0, LeaderID: 1},
		},
	}
	if _, ok := c.ApplyMetadata(snap); !ok {
		t.Fatal("first ApplyMetadata not ok")
	}
	upd, ok := c.ApplyMetadata(snap)
	if !ok {
		t.Fatal("second ApplyMetadata not ok")
	}
	if upd != 0 {
		t.Fatalf("expected 0 updates applying identical metadata twice, got %d", upd)
	}
}

func TestApplyMetadataUnknownTopicOrPartitionSetsNotExists(t *testing.T) {
	c := newTestClient(t, RoleProducer)
	topic := mustCreate(t, c, "orders")

	c.ApplyMetadata(MetadataSnapshot{
		Topic: "orders",
		Partitions: []PartitionMetadata{
			{ID: 0, LeaderID: 1},
			{ID: 1, LeaderID: 1},
		},
	})

	_, ok := c.ApplyMetadata(MetadataSnapshot{
		Topic:     "orders",
		ErrorCode: errCodeUnknownTopicOrPartition,
	})
	if !ok {
		t.Fatal("expected ApplyMetadata to apply an UnknownTopicOrPartition error")
	}
	if topic.State() != StateNotExists {
		t.Fatalf("got state %v, want NotExists", topic.State())
	}
	if topic.PartitionCount() != 0 {
		t.Fatalf("got partition count %d, want 0 after UnknownTopicOrPartition", topic.PartitionCount())
	}
}

func TestApplyMetadataTransientLeaderNotAvailableIgnored(t *testing.T) {
	c := newTestClient(t, RoleProducer)
	topic := mustCreate(t, c, "orders")

	c.ApplyMetadata(MetadataSnapshot{
		Topic: "orders",
		Partitions: []PartitionMetadata{
			{ID: 0, LeaderID: 1},
		},
	})

	upd, ok := c.ApplyMetadata(MetadataSnapshot{
		Topic:     "orders",
		ErrorCode: errCodeLeaderNotAvailable,
	})
	if ok {
		t.Fatal("expected a transient empty LeaderNotAvailable snapshot to be reported not-ok")
	}
	if upd != 0 {
		t.Fatalf("expected 0 updates from a transient error snapshot, got %d", upd)
	}
	if topic.State() != StateExists {
		t.Fatalf("transient error must not change state, got %v", topic.State())
	}
}

// TestApplyMetadataLeaderNotAvailableBlacksOutLeaders is the second half
// of scenario S3: once a LeaderNotAvailable error names the topic's
// partitions explicitly (rather than omitting them, which is the
// transient/ignored case), every existing partition's leader is
// delegated to none, but the topic's state is left unchanged.
func TestApplyMetadataLeaderNotAvailableBlacksOutLeaders(t *testing.T) {
	c := newTestClient(t, RoleProducer)
	topic := mustCreate(t, c, "orders")

	c.ApplyMetadata(MetadataSnapshot{
		Topic: "orders",
		Partitions: []PartitionMetadata{
			{ID: 0, LeaderID: 1},
			{ID: 1, LeaderID: 2},
		},
	})

	_, ok := c.ApplyMetadata(MetadataSnapshot{
		Topic:     "orders",
		ErrorCode: errCodeLeaderNotAvailable,
		Partitions: []PartitionMetadata{
			{ID: 0, LeaderID: -1},
			{ID: 1, LeaderID: -1},
		},
	})
	if !ok {
		t.Fatal("expected a non-empty LeaderNotAvailable snapshot to be applied")
	}
	if topic.State() != StateExists {
		t.Fatalf("got state %v, want state to remain Exists", topic.State())
	}
	if topic.PartitionCount() != 2 {
		t.Fatalf("got partition count %d, want 2 (unchanged)", topic.PartitionCount())
	}
	for i := int32(0); i < 2; i++ {
		p, _ := topic.Partition(i)
		if _, has := p.Leader(); has {
			t.Fatalf("partition %d still has a leader after blackout", i)
		}
	}
}

func TestApplyMetadataBlacklistedTopicIgnored(t *testing.T) {
	c, err := NewClient(RoleProducer, WithTopicBlacklist("^__.*"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	mustCreate(t, c, "__consumer_offsets")

	_, ok := c.ApplyMetadata(MetadataSnapshot{
		Topic: "__consumer_offsets",
		Partitions: []PartitionMetadata{
			{ID: 0, LeaderID: 1},
		},
	})
	if ok {
		t.Fatal("expected blacklisted topic metadata to be ignored")
	}
}

func TestApplyMetadataUnknownTopicToClient(t *testing.T) {
	c := newTestClient(t, RoleProducer)
	// No CreateTopic call: this core has never heard of "orders".
	_, ok := c.ApplyMetadata(MetadataSnapshot{
		Topic: "orders",
		Partitions: []PartitionMetadata{
			{ID: 0, LeaderID: 1},
		},
	})
	if ok {
		t.Fatal("expected ApplyMetadata for an untracked topic to report ok=false")
	}
}

func TestMetadataNoneMarksNotExists(t *testing.T) {
	c := newTestClient(t, RoleConsumer)
	topic := mustCreate(t, c, "orders")

	c.ApplyMetadata(MetadataSnapshot{
		Topic: "orders",
		Partitions: []PartitionMetadata{
			{ID: 0, LeaderID: 1},
		},
	})

	c.MetadataNone(topic)

	if topic.State() != StateNotExists {
		t.Fatalf("got state %v, want NotExists after MetadataNone", topic.State())
	}
	if topic.PartitionCount() != 0 {
		t.Fatalf("got partition count %d, want 0 after MetadataNone", topic.PartitionCount())
	}
}
