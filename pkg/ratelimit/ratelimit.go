// Package ratelimit ограничивает частоту запросов по ключу клиента.
// In-memory вариант строит token bucket на golang.org/x/time/rate,
// Redis вариант считает скользящее окно в sorted set.
package ratelimit

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"anyangle/pkg/config"
)

// Стандартные ошибки
var (
	ErrLimiterClosed = errors.New("limiter is closed")
)

// Backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Limiter интерфейс ограничителя запросов
type Limiter interface {
	// Allow проверяет, разрешён ли запрос, и расходует квоту
	Allow(ctx context.Context, key string) (*Decision, error)

	// Reset сбрасывает лимит для ключа
	Reset(ctx context.Context, key string) error

	// Close закрывает лимитер
	Close() error
}

// Decision результат проверки лимита
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Config конфигурация rate limiter
type Config struct {
	// Requests разрешённое число запросов за Window
	Requests int
	Window   time.Duration

	// BurstSize запас сверх Requests для token bucket
	BurstSize int

	// Backend хранилище (memory, redis)
	Backend string

	// CleanupInterval интервал удаления неактивных ключей для in-memory
	CleanupInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Requests:        100,
		Window:          time.Minute,
		Backend:         BackendMemory,
		BurstSize:       10,
		CleanupInterval: 5 * time.Minute,
		KeyPrefix:       "ratelimit:",
	}
}

// FromConfig создаёт конфигурацию из секции rate_limit
func FromConfig(cfg *config.RateLimitConfig) *Config {
	out := DefaultConfig()
	out.Requests = cfg.Requests
	out.Window = cfg.Window
	out.BurstSize = cfg.BurstSize
	out.Backend = cfg.Backend
	out.RedisAddr = cfg.RedisAddr
	if cfg.CleanupInterval > 0 {
		out.CleanupInterval = cfg.CleanupInterval
	}
	return out
}

// New создаёт лимитер на основе конфигурации
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case BackendRedis:
		return NewRedisLimiter(cfg)
	default:
		return NewMemoryLimiter(cfg), nil
	}
}

// KeyExtractor извлекает ключ клиента из запроса
type KeyExtractor func(r *http.Request) string

// ClientIP ключ по IP: X-Forwarded-For (первый адрес), X-Real-IP, затем RemoteAddr
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// RouteAndIP ключ по маршруту и IP
func RouteAndIP(r *http.Request) string {
	return r.URL.Path + ":" + ClientIP(r)
}
