package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter in-memory token bucket на ключ
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	config  *Config
	limit   rate.Limit
	burst   int
	now     func() time.Time

	stopCh chan struct{}
	closed bool
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter создаёт in-memory rate limiter. Квота пополняется
// равномерно: Requests за Window, запас Requests+BurstSize.
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &MemoryLimiter{
		buckets: make(map[string]*bucket),
		config:  cfg,
		limit:   rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:   cfg.Requests + cfg.BurstSize,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go l.cleanupLoop(interval)

	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (*Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrLimiterClosed
	}

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	d := &Decision{Limit: l.burst}
	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		d.RetryAfter = l.config.Window
	} else if delay := r.DelayFrom(now); delay > 0 {
		// Отменяем резерв, запрос не пропускаем
		r.CancelAt(now)
		d.RetryAfter = delay
	} else {
		d.Allowed = true
	}
	d.Remaining = max(0, int(math.Floor(b.limiter.TokensAt(now))))
	return d, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, key)
	return nil
}

// Len возвращает число отслеживаемых ключей
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	close(l.stopCh)
	l.buckets = nil
	return nil
}

func (l *MemoryLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.removeIdle()
		}
	}
}

// removeIdle удаляет ключи без запросов дольше 2x окна: их bucket уже полон
func (l *MemoryLimiter) removeIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-2 * l.config.Window)
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
