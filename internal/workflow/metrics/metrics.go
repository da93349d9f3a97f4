package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for rule engine passes.
type Metrics struct {
	Passes         prometheus.Counter
	PassDuration   prometheus.Histogram
	Events         *prometheus.CounterVec // by terminal status
	Actions        *prometheus.CounterVec // by action kind and result
	RuleSetVersion prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Passes: factory.NewCounter(prometheus.CounterOpts{
			Name: "careflow_workflow_passes_total",
			Help: "Completed ProcessPending passes",
		}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "careflow_workflow_pass_duration_seconds",
			Help:    "Wall time of one ProcessPending pass",
			Buckets: prometheus.DefBuckets,
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_workflow_events_total",
			Help: "Events moved to a terminal status by the rule engine",
		}, []string{"status"}),
		Actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_workflow_actions_total",
			Help: "Rule actions executed by kind and result",
		}, []string{"kind", "result"}),
		RuleSetVersion: factory.NewGauge(prometheus.GaugeOpts{
			Name: "careflow_workflow_rule_set_version",
			Help: "Rule set version read by the latest pass",
		}),
	}
}

func (m *Metrics) ObservePass(seconds float64, ruleSetVersion int64) {
	if m == nil {
		return
	}
	m.Passes.Inc()
	m.PassDuration.Observe(seconds)
	m.RuleSetVersion.Set(float64(ruleSetVersion))
}

func (m *Metrics) IncEvent(status string) {
	if m != nil {
		m.Events.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncAction(kind, result string) {
	if m != nil {
		m.Actions.WithLabelValues(kind, result).Inc()
	}
}
