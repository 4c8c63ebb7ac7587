package middleware

import (
	"math"
	"net/http"
	"strconv"

	"anyangle/pkg/apperror"
	"anyangle/pkg/logger"
	"anyangle/pkg/metrics"
	"anyangle/pkg/ratelimit"
)

// RateLimitConfig конфигурация rate limiting
type RateLimitConfig struct {
	Limiter      ratelimit.Limiter
	KeyExtractor ratelimit.KeyExtractor
	// ExcludePaths не ограничиваются (health, metrics)
	ExcludePaths map[string]bool
	Metrics      *metrics.Metrics
}

// RateLimit отклоняет запросы сверх лимита ответом 429
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = ratelimit.RouteAndIP
	}

	return func(next http.Handler) http.Handler {
		if cfg.Limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.ExcludePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := cfg.KeyExtractor(r)
			decision, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				// При ошибке пропускаем (fail open)
				logger.WithContext(r.Context()).Warn("Rate limit check failed", "error", err, "key", key)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				if cfg.Metrics != nil {
					cfg.Metrics.RecordShortCircuit("rate_limited")
				}
				retry := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))

				logger.WithContext(r.Context()).Warn("Rate limit exceeded", "key", key, "limit", decision.Limit)
				WriteError(w, r, apperror.New(apperror.CodeRateLimited, apperror.ErrRateLimited.Message).
					WithDetails("retry_after_seconds", retry))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
