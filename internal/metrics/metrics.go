// Package metrics содержит Prometheus-метрики сервиса.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once: registry не допускает повторной регистрации одноимённых метрик
	once sync.Once

	// HTTPRequestsTotal число HTTP-запросов по методу, шаблону маршрута и статусу.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds распределение времени обработки запросов.
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// LinksCreatedTotal число созданных коротких ссылок.
	LinksCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_links_created_total",
			Help: "Total number of created short links.",
		},
	)

	// CodeCollisionsTotal число повторных генераций кода из-за коллизий.
	CodeCollisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlink_code_collisions_total",
			Help: "Total number of short code collisions on insert.",
		},
	)

	// ResolutionsTotal переходы по коротким ссылкам: тип решения и класс устройства.
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_resolutions_total",
			Help: "Total number of resolved short links by decision and device class.",
		},
		[]string{"decision", "device"},
	)
)

// Init регистрирует метрики один раз.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			LinksCreatedTotal,
			CodeCollisionsTotal,
			ResolutionsTotal,
		)
	})
}
