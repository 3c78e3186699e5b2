package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors of the invoice store.
type Metrics struct {
	Registry prometheus.Gatherer

	Mutations      *prometheus.CounterVec
	LockWait       prometheus.Histogram
	LockTimeouts   prometheus.Counter
	NumbersIssued  prometheus.Counter
	Renders        *prometheus.CounterVec
	RenderDuration prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers all collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicetools_mutations_total",
			Help: "Index-affecting mutations by operation and outcome",
		}, []string{"op", "outcome"}),
		LockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoicetools_lock_wait_seconds",
			Help:    "Time spent waiting for the store-wide write lock",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		LockTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "invoicetools_lock_timeouts_total",
			Help: "Write lock acquisitions that exceeded the timeout",
		}),
		NumbersIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "invoicetools_document_numbers_issued_total",
			Help: "Document numbers minted by the sequence generator",
		}),
		Renders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicetools_renders_total",
			Help: "PDF renders by outcome",
		}, []string{"outcome"}),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoicetools_render_duration_seconds",
			Help:    "Wall time of a complete two-pass render",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		}),
	}
}

// ObserveMutation records one mutation.
func (m *Metrics) ObserveMutation(op string, err error) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, outcome(err)).Inc()
}

// ObserveLockWait records how long a lock acquisition took.
func (m *Metrics) ObserveLockWait(d time.Duration, timedOut bool) {
	if m == nil {
		return
	}
	m.LockWait.Observe(d.Seconds())
	if timedOut {
		m.LockTimeouts.Inc()
	}
}

// IncNumbersIssued counts one minted document number.
func (m *Metrics) IncNumbersIssued() {
	if m == nil {
		return
	}
	m.NumbersIssued.Inc()
}

// ObserveRender records one render.
func (m *Metrics) ObserveRender(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Renders.WithLabelValues(outcome(err)).Inc()
	m.RenderDuration.Observe(d.Seconds())
}

// WriteTextfile dumps all metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
