package ktopic

import "time"

// ScanAll implements §4.F, the periodic housekeeping scan: for every
// registered topic, age out any message that has exceeded its deadline
// (reporting it as MessageTimedOut) and, if a refresh interval is
// configured, revert a topic whose metadata has gone stale back to
// Unknown and request fresh metadata for it.
//
// Per the topic locking order, every topic's own critical section
// releases its lock before ScanAll fires any leader query; the set of
// topics needing one is collected first and the queries issued only
// once every topic has been examined, so a slow LeaderQueryer
// implementation can never be called while a topic lock is held.
func (c *Client) ScanAll(now time.Time) int {
	c.mu.RLock()
	topics := make([]*Topic, 0, len(c.topics))
	for _, t := range c.topics {
		t.acquire()
		topics = append(topics, t)
	}
	c.mu.RUnlock()

	var needsQuery []string
	var timedOut int

	for _, t := range topics {
		n, query := c.scanTopic(t, now)
		timedOut += n
		if query {
			needsQuery = append(needsQuery, t.name)
		}
		t.release()
	}

	c.metrics.markScannerTimedOut(timedOut)

	for _, name := range needsQuery {
		c.queryLeader(name)
	}

	return timedOut
}

// scanTopic runs one topic's share of ScanAll: the timeout age-scan
// across every partition plus UA, the staleness check against
// c.refreshInterval, and the empty-topic check that drives rediscovery
// for a topic with no partitions yet. It returns how many messages timed
// out and whether this topic needs a fresh metadata query.
func (c *Client) scanTopic(t *Topic, now time.Time) (timedOut int, needsQuery bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []*Message

	for _, p := range t.partitions {
		p.mu.Lock()
		p.ageScanLocked(now, &expired)
		p.mu.Unlock()
	}
	if t.ua != nil {
		t.ua.mu.Lock()
		t.ua.ageScanLocked(now, &expired)
		t.ua.mu.Unlock()
	}

	if len(expired) > 0 {
		c.deliverMessages(t.name, expired, ErrMessageTimedOut)
		timedOut = len(expired)
	}

	if c.refreshInterval > 0 && t.state != StateUnknown && !t.tsMetadata.IsZero() {
		if now.Sub(t.tsMetadata) > 3*c.refreshInterval {
			t.setStateLocked(StateUnknown)
			needsQuery = true
		}
	}

	// A topic with no partitions yet - whether brand new or just reverted
	// to Unknown above - can never discover a leader on its own; the
	// scanner is what drives that rediscovery (spec §4.F, Component F).
	if len(t.partitions) == 0 {
		needsQuery = true
	}

	return timedOut, needsQuery
}
