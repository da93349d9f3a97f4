package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the domain event log.
type Metrics struct {
	Appended *prometheus.CounterVec
	Marked   *prometheus.CounterVec
	Claimed  prometheus.Counter
	Released prometheus.Counter
}

// New registers event log metrics with reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Appended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_events_appended_total",
			Help: "Domain events appended to the log by type",
		}, []string{"type"}),
		Marked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_events_marked_total",
			Help: "Domain events moved to a terminal status",
		}, []string{"status"}),
		Claimed: factory.NewCounter(prometheus.CounterOpts{
			Name: "careflow_events_claimed_total",
			Help: "Domain events claimed for processing",
		}),
		Released: factory.NewCounter(prometheus.CounterOpts{
			Name: "careflow_events_released_total",
			Help: "PROCESSING domain events returned to PENDING",
		}),
	}
}

func (m *Metrics) IncAppended(eventType string) {
	if m != nil {
		m.Appended.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) IncMarked(status string) {
	if m != nil {
		m.Marked.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) AddClaimed(n int) {
	if m != nil {
		m.Claimed.Add(float64(n))
	}
}

func (m *Metrics) IncReleased() {
	if m != nil {
		m.Released.Inc()
	}
}
