package ktopic

import metrics "github.com/rcrowley/go-metrics"

// Metrics wraps a go-metrics registry with the named counters and meters
// this core updates. A nil *Metrics is always safe to call into: every
// method has a nil-receiver guard, the same defensive shape sarama's
// consumer gives its own metricRegistry field.
type Metrics struct {
	registry metrics.Registry

	topics          metrics.Counter
	metadataApplied metrics.Meter
	metadataErrors  metrics.Meter
	stateUnknown    metrics.Meter
	stateExists     metrics.Meter
	stateNotExists  metrics.Meter
	uaRequeued      metrics.Meter
	uaFailed        metrics.Meter
	scannerTimedOut metrics.Meter
}

// NewMetrics creates a Metrics instance backed by a fresh go-metrics
// registry, with every counter/meter pre-registered under the "ktopic."
// namespace.
func NewMetrics() *Metrics {
	reg := metrics.NewRegistry()
	m := &Metrics{
		registry:        reg,
		topics:          metrics.NewRegisteredCounter("ktopic.topics", reg),
		metadataApplied: metrics.NewRegisteredMeter("ktopic.metadata.applied", reg),
		metadataErrors:  metrics.NewRegisteredMeter("ktopic.metadata.errors", reg),
		stateUnknown:    metrics.NewRegisteredMeter("ktopic.state.unknown", reg),
		stateExists:     metrics.NewRegisteredMeter("ktopic.state.exists", reg),
		stateNotExists:  metrics.NewRegisteredMeter("ktopic.state.notexists", reg),
		uaRequeued:      metrics.NewRegisteredMeter("ktopic.ua.requeued", reg),
		uaFailed:        metrics.NewRegisteredMeter("ktopic.ua.failed", reg),
		scannerTimedOut: metrics.NewRegisteredMeter("ktopic.scanner.timedout", reg),
	}
	return m
}

// Registry returns the underlying go-metrics registry, for wiring into a
// reporter (e.g. metrics.WriteJSONOnce, graphite, etc.).
func (m *Metrics) Registry() metrics.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) incTopics() {
	if m == nil {
		return
	}
	m.topics.Inc(1)
}

func (m *Metrics) decTopics() {
	if m == nil {
		return
	}
	m.topics.Dec(1)
}

func (m *Metrics) markMetadataApplied(upd int) {
	if m == nil {
		return
	}
	m.metadataApplied.Mark(int64(upd))
}

func (m *Metrics) markMetadataError() {
	if m == nil {
		return
	}
	m.metadataErrors.Mark(1)
}

func (m *Metrics) markState(s State) {
	if m == nil {
		return
	}
	switch s {
	case StateUnknown:
		m.stateUnknown.Mark(1)
	case StateExists:
		m.stateExists.Mark(1)
	case StateNotExists:
		m.stateNotExists.Mark(1)
	}
}

func (m *Metrics) markUA(requeued, failed int) {
	if m == nil {
		return
	}
	if requeued > 0 {
		m.uaRequeued.Mark(int64(requeued))
	}
	if failed > 0 {
		m.uaFailed.Mark(int64(failed))
	}
}

func (m *Metrics) markScannerTimedOut(n int) {
	if m == nil || n == 0 {
		return
	}
	m.scannerTimedOut.Mark(int64(n))
}
