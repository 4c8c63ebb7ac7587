package middleware

import (
	"net/http"
	"time"

	"anyangle/pkg/metrics"
)

// Metrics записывает метрики запросов к маршруту route
func Metrics(m *metrics.Metrics, tracker *metrics.RequestTracker, route string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracker.Start(route)
			defer tracker.End(route)

			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			m.RecordHTTPRequest(route, rec.status, time.Since(start))
		})
	}
}
