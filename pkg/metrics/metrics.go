package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics содержит коллекторы Prometheus приложения
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	CommentEvents  *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
	SchedulerRuns  *prometheus.CounterVec
	Notifications  *prometheus.CounterVec
	CommentsByConf *prometheus.GaugeVec
}

// New создает и регистрирует коллекторы в собственном реестре
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Количество HTTP-запросов по маршруту, методу и статусу.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность обработки HTTP-запросов.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CommentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comment_events_total",
			Help:      "Операции над комментариями.",
		}, []string{"action"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Обращения к кэшу по результату.",
		}, []string{"result"}),
		SchedulerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_runs_total",
			Help:      "Запуски фоновых задач по результату.",
		}, []string{"job", "result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Отправленные уведомления по типу и результату.",
		}, []string{"type", "result"}),
		CommentsByConf: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conference_comments",
			Help:      "Число комментариев по конференциям.",
		}, []string{"conference"}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.CommentEvents,
		m.CacheLookups,
		m.SchedulerRuns,
		m.Notifications,
		m.CommentsByConf,
	)

	return m
}

// Registry возвращает реестр коллекторов
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler возвращает обработчик /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncComment учитывает операцию над комментарием; nil-приемник допустим
func (m *Metrics) IncComment(action string) {
	if m == nil {
		return
	}
	m.CommentEvents.WithLabelValues(action).Inc()
}

// IncCache учитывает попадание или промах кэша
func (m *Metrics) IncCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// IncJob учитывает запуск фоновой задачи
func (m *Metrics) IncJob(job string, err error) {
	if m == nil {
		return
	}
	m.SchedulerRuns.WithLabelValues(job, resultLabel(err)).Inc()
}

// IncNotification учитывает отправку уведомления
func (m *Metrics) IncNotification(kind string, err error) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, resultLabel(err)).Inc()
}

// SetConferenceComments выставляет число комментариев конференции
func (m *Metrics) SetConferenceComments(conference string, count int) {
	if m == nil {
		return
	}
	m.CommentsByConf.WithLabelValues(conference).Set(float64(count))
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
