package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the monitor's Prometheus instruments.
type Metrics struct {
	polls        *prometheus.CounterVec
	pollDuration prometheus.Histogram
	changeEvents *prometheus.CounterVec
	reconnects   prometheus.Counter
}

// NewMetrics registers the monitor metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		polls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchsync",
			Subsystem: "monitor",
			Name:      "polls_total",
			Help:      "Device polls by result.",
		}, []string{"result"}),
		pollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "switchsync",
			Subsystem: "monitor",
			Name:      "poll_duration_seconds",
			Help:      "Duration of a full device poll.",
			Buckets:   prometheus.DefBuckets,
		}),
		changeEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchsync",
			Subsystem: "monitor",
			Name:      "change_events_total",
			Help:      "Emitted change events by kind.",
		}, []string{"kind"}),
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "switchsync",
			Subsystem: "monitor",
			Name:      "reconnects_total",
			Help:      "Recoveries from an unreachable device.",
		}),
	}
}

// ObservePoll records one poll attempt.
func (m *Metrics) ObservePoll(d time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.polls.WithLabelValues(result).Inc()
	m.pollDuration.Observe(d.Seconds())
}

// CountChange records one emitted change event.
func (m *Metrics) CountChange(kind string) {
	m.changeEvents.WithLabelValues(kind).Inc()
}

// CountReconnect records one recovery from an unreachable device.
func (m *Metrics) CountReconnect() {
	m.reconnects.Inc()
}
