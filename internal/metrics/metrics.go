package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Capture results used as the "result" label.
const (
	ResultRecorded   = "recorded"
	ResultSuppressed = "suppressed"
	ResultFiltered   = "filtered"
	ResultCommand    = "command"
	ResultNoData     = "no_data"
	// ResultStale marks events the kernel logged before the capture began.
	ResultStale = "stale"
)

// Metrics holds the Prometheus collectors for capture and replay. Each
// instance owns its registry so sessions in tests do not collide. All
// methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	CaptureLines     prometheus.Counter
	CaptureEvents    *prometheus.CounterVec
	ReplayBytes      *prometheus.CounterVec
	ReplayMismatches prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CaptureLines: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ps2emu",
			Subsystem: "capture",
			Name:      "lines_total",
			Help:      "Total number of kernel log lines read.",
		}),
		CaptureEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ps2emu",
			Subsystem: "capture",
			Name:      "events_total",
			Help:      "Total number of i8042 events by outcome.",
		}, []string{"result"}),
		ReplayBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ps2emu",
			Subsystem: "replay",
			Name:      "bytes_total",
			Help:      "Total number of bytes exchanged with the device by direction.",
		}, []string{"direction"}), // direction: sent, expected
		ReplayMismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ps2emu",
			Subsystem: "replay",
			Name:      "mismatches_total",
			Help:      "Total number of host bytes that differed from the recording.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveLine() {
	if m == nil {
		return
	}
	m.CaptureLines.Inc()
}

func (m *Metrics) ObserveCapture(result string) {
	if m == nil {
		return
	}
	m.CaptureEvents.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveReplay(direction string) {
	if m == nil {
		return
	}
	m.ReplayBytes.WithLabelValues(direction).Inc()
}

func (m *Metrics) ObserveMismatch() {
	if m == nil {
		return
	}
	m.ReplayMismatches.Inc()
}
