// Package metrics records proof pipeline and proof server activity in
// Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zklc"

// Operations recorded by ProverMetrics.
const (
	OpExecute = "execute"
	OpProve   = "prove"
	OpVerify  = "verify"
	OpSetup   = "setup"
)

// ProverMetrics records proof pipeline and proof server activity. A nil
// *ProverMetrics records nothing.
type ProverMetrics struct {
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// NewProverMetrics registers the pipeline collectors with reg.
func NewProverMetrics(reg prometheus.Registerer) *ProverMetrics {
	f := promauto.With(reg)
	return &ProverMetrics{
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "duration_seconds",
			Help:      "Duration of proof pipeline operations",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"program", "op", "mode"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "failures_total",
			Help:      "Failed proof pipeline operations",
		}, []string{"program", "op", "mode"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Proof server requests by method",
		}, []string{"method"}),
	}
}

// Observe records one pipeline operation. mode is empty for operations
// without a proving mode.
func (m *ProverMetrics) Observe(program, op, mode string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(program, op, mode).Observe(time.Since(start).Seconds())
	if err != nil {
		m.failures.WithLabelValues(program, op, mode).Inc()
	}
}

// Request counts one proof server request.
func (m *ProverMetrics) Request(method string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method).Inc()
}
