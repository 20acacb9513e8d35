package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Remote counts calls made against the access node.
type Remote struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewRemote(reg prometheus.Registerer) *Remote {
	f := promauto.With(reg)
	return &Remote{
		calls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fungible",
				Name:      "remote_calls_total",
				Help:      "Total number of calls sent to the access node",
			},
			[]string{"op", "outcome"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fungible",
				Name:      "remote_call_duration_seconds",
				Help:      "Access node call duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"op"},
		),
	}
}

// Observe records one finished call. A nil Remote is a no-op.
func (m *Remote) Observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.calls.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
