package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers alert creation and notification delivery.
type Metrics struct {
	Created       *prometheus.CounterVec
	Notified      prometheus.Counter
	NotifyErrors  prometheus.Counter
	NotifyLatency prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Created: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careflow_alerts_created_total",
			Help: "Alerts created by severity and escalation flag",
		}, []string{"severity", "escalation"}),
		Notified: factory.NewCounter(prometheus.CounterOpts{
			Name: "careflow_alert_notifications_total",
			Help: "Notifications delivered",
		}),
		NotifyErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "careflow_alert_notification_errors_total",
			Help: "Notification deliveries that failed; alerts are kept regardless",
		}),
		NotifyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "careflow_alert_notification_duration_seconds",
			Help:    "Time spent delivering one notification",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncCreated(severity string, escalation bool) {
	if m == nil {
		return
	}
	label := "false"
	if escalation {
		label = "true"
	}
	m.Created.WithLabelValues(severity, label).Inc()
}

func (m *Metrics) ObserveNotify(seconds float64, err error) {
	if m == nil {
		return
	}
	m.NotifyLatency.Observe(seconds)
	if err != nil {
		m.NotifyErrors.Inc()
		return
	}
	m.Notified.Inc()
}
