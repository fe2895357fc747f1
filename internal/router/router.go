package router

import (
	"net/http"

	"github.com/Totarae/shortlink/internal/handlers"
	"github.com/Totarae/shortlink/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter создаёт и настраивает маршрутизатор.
// CORS разрешён только для allowedOrigin.
func NewRouter(handler *handlers.Handler, logger *zap.Logger, allowedOrigin string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.LoggingMiddleware(logger)) // Подключаем логирование
	r.Use(chimw.Recoverer)
	r.Use(middleware.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(middleware.GzipMiddleware) // Gzip-сжатие

	r.Get("/", handler.Home)
	r.Post("/shorten", handler.ReceiveShorten)
	r.Get("/all", handler.GetAllURLs)
	r.Get("/stats", handler.GetStats)
	r.Get("/stats/daily", handler.GetDailyStats)
	r.Get("/ping", handler.PingHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/update/{code}", handler.UpdateURL)
	r.Post("/update1/{code}", handler.UpdateOriginalURL)
	r.Get("/{code}", handler.ResponseURL)
	return r
}
