package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts order placements and status changes per order kind.
type Metrics struct {
	Placed      *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Placed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_orders_placed_total",
			Help: "Orders placed by kind",
		}, []string{"kind"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_order_transitions_total",
			Help: "Committed order status changes",
		}, []string{"kind", "to_status"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_order_rejections_total",
			Help: "Rejected order status changes by reason code",
		}, []string{"kind", "code"}),
	}
}

func (m *Metrics) IncPlaced(kind string) {
	if m != nil {
		m.Placed.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncTransition(kind, toStatus string) {
	if m != nil {
		m.Transitions.WithLabelValues(kind, toStatus).Inc()
	}
}

func (m *Metrics) IncRejection(kind, code string) {
	if m != nil {
		m.Rejections.WithLabelValues(kind, code).Inc()
	}
}
