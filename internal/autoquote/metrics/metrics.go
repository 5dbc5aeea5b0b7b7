// Package metrics exports dispatch counters. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	dispatches *prometheus.CounterVec
	latency    prometheus.Histogram
	spend      prometheus.Counter
	refunds    prometheus.Counter
	flagged    prometheus.Gauge
}

// New registers the auto-quote collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoquote",
			Name:      "dispatch_total",
			Help:      "Auto-quote dispatch attempts by outcome and reason.",
		}, []string{"outcome", "reason"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "autoquote",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent deciding one (request, host) pair.",
			Buckets:   prometheus.DefBuckets,
		}),
		spend: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "autoquote",
			Name:      "charged_total",
			Help:      "Sum of auto-quote costs charged to host wallets.",
		}),
		refunds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "autoquote",
			Name:      "refunds_total",
			Help:      "Unread auto-quotes refunded.",
		}),
		flagged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "autoquote",
			Name:      "flagged_hosts",
			Help:      "Hosts over the dispatch velocity threshold at the last scan.",
		}),
	}
	reg.MustRegister(m.dispatches, m.latency, m.spend, m.refunds, m.flagged)
	return m
}

// ObserveDispatch records one dispatch decision.
func (m *Metrics) ObserveDispatch(outcome, reason string, cost int64, took time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(outcome, reason).Inc()
	m.latency.Observe(took.Seconds())
	if cost > 0 {
		m.spend.Add(float64(cost))
	}
}

func (m *Metrics) IncRefund() {
	if m == nil {
		return
	}
	m.refunds.Inc()
}

func (m *Metrics) SetFlagged(n int) {
	if m == nil {
		return
	}
	m.flagged.Set(float64(n))
}
