package handlers

import (
	"context"
	"net/http"
	"time"

	"anyangle/pkg/config"
	"anyangle/pkg/metrics"
	"anyangle/pkg/ratelimit"
	"anyangle/pkg/telemetry"
	"anyangle/services/pathfinder-svc/internal/middleware"
	"anyangle/services/pathfinder-svc/internal/service"
)

// Pinger проверяет доступность зависимости
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps зависимости HTTP слоя
type Deps struct {
	Config     *config.Config
	Pathfinder *service.Pathfinder
	Metrics    *metrics.Metrics
	Limiter    ratelimit.Limiter
	// Checks проверяются в /ready; ключ - имя зависимости
	Checks map[string]Pinger
}

// NewRouter собирает HTTP handler сервиса со всеми middleware
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	m := deps.Metrics
	if m == nil {
		m = metrics.Get()
	}
	tracker := metrics.NewRequestTracker(m.HTTPRequestsInFlight)
	paths := NewPathHandler(deps.Pathfinder)

	mux := http.NewServeMux()
	route := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Chain(h,
			telemetry.Middleware(name),
			middleware.Metrics(m, tracker, name),
		))
	}

	route("POST /v1/paths", "/v1/paths", paths.FindPath)
	route("GET /v1/algorithms", "/v1/algorithms", paths.ListAlgorithms)
	route("DELETE /v1/grids/{hash}/paths", "/v1/grids/{hash}/paths", paths.InvalidateGrid)

	// Health endpoints (обычный HTTP для k8s probes)
	mux.HandleFunc("GET /health", handleHealth(cfg))
	mux.HandleFunc("GET /ready", handleReady(deps.Checks))

	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+metricsPath, m.Handler())
	}

	var limiter middleware.Middleware = func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit.Enabled {
		limiter = middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: deps.Limiter,
			ExcludePaths: map[string]bool{
				"/health":   true,
				"/ready":    true,
				metricsPath: true,
			},
			Metrics: m,
		})
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Recover,
		middleware.Logging,
		limiter,
		middleware.MaxBytes(cfg.HTTP.MaxBodyBytes),
	)
}

func handleHealth(cfg *config.Config) http.HandlerFunc {
	startedAt := time.Now()
	return func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
		})
	}
}

func handleReady(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		ready := true
		status := make(map[string]string, len(checks))
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				ready = false
				status[name] = err.Error()
				continue
			}
			status[name] = "ok"
		}

		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		middleware.WriteJSON(w, code, map[string]any{
			"ready":  ready,
			"checks": status,
		})
	}
}
