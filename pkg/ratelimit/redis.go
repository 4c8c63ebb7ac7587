package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow атомарно чистит окно, считает и добавляет запрос.
// Возвращает {allowed, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
	local current = redis.call('ZCARD', key)

	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window)
		return {1, limit - current - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry = window
	if oldest[2] then
		retry = tonumber(oldest[2]) + window - now
	end
	return {0, 0, retry}
`)

// RedisLimiter скользящее окно в Redis, общее для всех реплик
type RedisLimiter struct {
	client redis.UniversalClient
	config *Config
	seq    func() string
}

// NewRedisLimiter создаёт Redis rate limiter и проверяет соединение
func NewRedisLimiter(cfg *Config) (*RedisLimiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisLimiterFromClient(client, cfg), nil
}

// NewRedisLimiterFromClient использует готовый клиент
func NewRedisLimiterFromClient(client redis.UniversalClient, cfg *Config) *RedisLimiter {
	var n atomic.Uint64
	return &RedisLimiter{
		client: client,
		config: cfg,
		// Уникальный член sorted set для запросов в одну миллисекунду
		seq: func() string {
			return fmt.Sprintf("%d-%d", time.Now().UnixNano(), n.Add(1))
		},
	}
}

func (l *RedisLimiter) key(key string) string {
	return l.config.KeyPrefix + key
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Decision, error) {
	now := time.Now().UnixMilli()
	window := l.config.Window.Milliseconds()

	res, err := slidingWindow.Run(ctx, l.client, []string{l.key(key)},
		l.config.Requests, window, now, l.seq()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis script error: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected redis script result: %v", res)
	}

	return &Decision{
		Allowed:    res[0] == 1,
		Limit:      l.config.Requests,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
