package metricsvc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/enactus/membership/core/attendance"
	"github.com/enactus/membership/core/notify"
)

const namespace = "enactus"

const (
	resultSent   = "sent"
	resultFailed = "failed"
)

// Metrics holds the application collectors on their own registry.
type Metrics struct {
	registry      *prometheus.Registry
	notifications *prometheus.CounterVec
	absences      prometheus.Counter
	rateLimited   *prometheus.CounterVec
}

var (
	_ notify.Observer     = (*Metrics)(nil)
	_ attendance.Observer = (*Metrics)(nil)
)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_messages_total",
			Help:      "Notification gateway calls by template and result.",
		}, []string{"template", "result"}),
		absences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_absences_recorded_total",
			Help:      "Absence records committed.",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by route.",
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.notifications,
		m.absences,
		m.rateLimited,
	)
	return m
}

func (m *Metrics) Notified(template string, success bool) {
	result := resultSent
	if !success {
		result = resultFailed
	}
	m.notifications.WithLabelValues(template, result).Inc()
}

func (m *Metrics) AbsencesRecorded(n int) {
	if n > 0 {
		m.absences.Add(float64(n))
	}
}

func (m *Metrics) RateLimited(route string) {
	m.rateLimited.WithLabelValues(route).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
