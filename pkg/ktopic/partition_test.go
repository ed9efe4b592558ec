package ktopic

import (
	"testing"
	"time"
)

func TestDrainQueuesLockedPreservesOrder(t *testing.T) {
	p := &Partition{}
	a := NewMessage(nil, []byte("xmit-1"))
	b := NewMessage(nil, []byte("xmit-2"))
	c := NewMessage(nil, []byte("buffered-1"))

	p.mu.Lock()
	p.xmitMsgQ = []*Message{a, b}
	p.msgQ = []*Message{c}
	got := p.drainQueuesLocked()
	p.mu.Unlock()

	want := []*Message{a, b, c}
	if len(got) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %v, want %v", i, got[i], want[i])
		}
	}

	p.mu.Lock()
	empty := len(p.xmitMsgQ) == 0 && len(p.msgQ) == 0
	p.mu.Unlock()
	if !empty {
		t.Fatal("expected both queues empty after drainQueuesLocked")
	}
}

func TestAgeScanLockedMovesOnlyExpired(t *testing.T) {
	p := &Partition{}
	now := time.Unix(1_700_000_000, 0)

	expired := NewMessage(nil, []byte("expired")).WithDeadline(now.Add(-time.Minute))
	alive := NewMessage(nil, []byte("alive")).WithDeadline(now.Add(time.Minute))
	noDeadline := NewMessage(nil, []byte("no-deadline"))

	p.mu.Lock()
	p.msgQ = []*Message{expired, alive, noDeadline}
	var out []*Message
	p.ageScanLocked(now, &out)
	remaining := append([]*Message(nil), p.msgQ...)
	p.mu.Unlock()

	if len(out) != 1 || out[0] != expired {
		t.Fatalf("got expired=%v, want exactly [expired]", out)
	}
	if len(remaining) != 2 || remaining[0] != alive || remaining[1] != noDeadline {
		t.Fatalf("got remaining=%v, want [alive, noDeadline]", remaining)
	}
}

func TestPartitionAvailableReflectsLeader(t *testing.T) {
	c := newTestClient(t, RoleProducer)
	topic := mustCreate(t, c, "orders")

	c.ApplyMetadata(MetadataSnapshot{
		Topic: "orders",
		Partitions: []PartitionMetadata{
			{ID: 0, LeaderID: 1},
		},
	})

	if !c.PartitionAvailable(topic, 0) {
		t.Fatal("expected partition 0 to be available once it has a leader")
	}
	if c.PartitionAvailable(topic, 1) {
		t.Fatal("expected partition 1 to be unavailable: it does not exist")
	}
}
