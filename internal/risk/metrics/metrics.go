package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for risk scoring.
type Metrics struct {
	// Persisted assessments by level and source
	Assessments *prometheus.CounterVec

	// Demo-path scorings, never persisted
	Previews prometheus.Counter

	Scores prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Assessments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_risk_assessments_total",
			Help: "Persisted risk assessments by level and source",
		}, []string{"level", "source"}),
		Previews: factory.NewCounter(prometheus.CounterOpts{
			Name: "careflow_risk_previews_total",
			Help: "Risk scorings on the preview path",
		}),
		Scores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "careflow_risk_score",
			Help:    "Distribution of computed risk scores",
			Buckets: prometheus.LinearBuckets(0.05, 0.1, 10),
		}),
	}
}

func (m *Metrics) ObserveAssessment(level, source string, score float64) {
	if m != nil {
		m.Assessments.WithLabelValues(level, source).Inc()
		m.Scores.Observe(score)
	}
}

func (m *Metrics) IncPreview() {
	if m != nil {
		m.Previews.Inc()
	}
}
