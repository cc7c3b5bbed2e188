package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/propstream/internal/logger"
)

// NewRouter configures the chi router exposing propstream's HTTP surface:
//
//   - POST /write-item-stream/{item_id}/{version}
//   - GET  /read-item-stream/{item_id}/{version}
//   - GET  /health, GET /health/ready
//   - GET  /metrics (only if metricsEnabled)
func NewRouter(h *Handlers, metricsEnabled bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", Liveness)
		r.Get("/ready", Readiness)
	})

	r.Post("/write-item-stream/{item_id}/{version}", h.WriteItemStream)
	r.Get("/read-item-stream/{item_id}/{version}", h.ReadItemStream)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
