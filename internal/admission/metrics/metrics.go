package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts admission lifecycle transitions.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_admission_transitions_total",
			Help: "Committed admission transitions",
		}, []string{"transition"}), // admit, transfer, discharge
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_admission_rejections_total",
			Help: "Rejected admission transitions by reason code",
		}, []string{"transition", "code"}),
	}
}

func (m *Metrics) IncTransition(transition string) {
	if m != nil {
		m.Transitions.WithLabelValues(transition).Inc()
	}
}

func (m *Metrics) IncRejection(transition, code string) {
	if m != nil {
		m.Rejections.WithLabelValues(transition, code).Inc()
	}
}
