package middleware

import (
	"net/http"
	"time"

	"anyangle/pkg/logger"
)

// Logging логирует каждый запрос после ответа
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		logFields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
			"remote", r.RemoteAddr,
		}

		log := logger.WithContext(r.Context())
		switch {
		case rec.status >= http.StatusInternalServerError:
			log.Error("Request failed", logFields...)
		case rec.status >= http.StatusBadRequest:
			log.Warn("Request rejected", logFields...)
		default:
			log.Info("Request completed", logFields...)
		}
	})
}
