package ktopic

// reassignUALocked implements §4.E's UA reassignment: drain every message
// sitting in ua, route each one through the topic's partitioner (or fail
// it), and report the failures in one batch. No-op for consumers. Caller
// must hold t.mu for writing.
func (t *Topic) reassignUALocked() {
	if t.client.role != RoleProducer {
		return
	}
	if t.ua == nil {
		t.client.logger.Log(LogLevelError, "topic missing ua partition during reassignment", "topic", t.name)
		return
	}

	t.ua.mu.Lock()
	staging := t.ua.drainMsgQLocked()
	t.ua.mu.Unlock()
	if len(staging) == 0 {
		return
	}

	snap := t.snapshotLocked()
	var failed []*Message
	var requeued int
	for _, m := range staging {
		if m.ForcedPartition != UA && m.ForcedPartition >= snap.PartitionCount && t.state != StateUnknown {
			failed = append(failed, m)
			continue
		}
		pid, err := t.config.Partitioner(t, m, snap, PartitionerFlagNone)
		if err != nil {
			failed = append(failed, m)
			continue
		}
		p := t.partitions[pid]
		p.mu.Lock()
		p.enqueueLocked(m)
		p.mu.Unlock()
		requeued++
	}

	t.client.metrics.markUA(requeued, len(failed))

	if len(failed) > 0 {
		kind := ErrUnknownPartition
		if t.state == StateNotExists {
			kind = ErrUnknownTopic
		}
		t.client.deliverMessages(t.name, failed, kind)
	}
}

// PartitionerFlagNone is the zero value of PartitionerFlags, passed by the
// core itself when invoking a topic's partitioner during UA reassignment.
const PartitionerFlagNone PartitionerFlags = 0

// propagateNotExistsLocked implements the consumer half of §4.E: every
// partition still sitting in desired is told UnknownTopic, once, for this
// particular NotExists transition. Caller must hold t.mu for writing.
func (t *Topic) propagateNotExistsLocked() {
	if t.client.role != RoleConsumer {
		return
	}
	for id, p := range t.desired {
		p.mu.Lock()
		p.enqueueErrorLocked(ErrUnknownTopic)
		p.mu.Unlock()
		t.client.notifyPartitionError(t.name, id, ErrUnknownTopic)
	}
}
