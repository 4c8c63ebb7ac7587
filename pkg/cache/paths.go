package cache

import (
	"context"
	"errors"
	"math"
	"time"
)

// Point вершина сетки в кэшированном пути
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CachedPath кэшированный результат поиска. Length для ненайденного пути
// хранится как -1, JSON не умеет +Inf.
type CachedPath struct {
	Found      bool      `json:"found"`
	Path       []Point   `json:"path,omitempty"`
	Length     float64   `json:"length"`
	Settled    int       `json:"settled"`
	ComputedAt time.Time `json:"computed_at"`
}

// PathLength возвращает длину пути, +Inf для ненайденного
func (p *CachedPath) PathLength() float64 {
	if !p.Found {
		return math.Inf(1)
	}
	return p.Length
}

// PathCache типизированный кэш путей поверх Cache
type PathCache struct {
	cache      Cache
	codec      Codec
	prefix     string
	defaultTTL time.Duration
}

// PathCacheOptions параметры PathCache
type PathCacheOptions struct {
	Prefix     string
	DefaultTTL time.Duration
	Compress   bool
}

// NewPathCache создаёт кэш путей. Значения длиннее 512 байт сжимаются,
// если включено Compress.
func NewPathCache(c Cache, opts PathCacheOptions) *PathCache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 10 * time.Minute
	}
	if opts.Prefix == "" {
		opts.Prefix = "path:"
	}
	return &PathCache{
		cache:      c,
		codec:      Codec{Compress: opts.Compress, MinSize: 512},
		prefix:     opts.Prefix,
		defaultTTL: opts.DefaultTTL,
	}
}

// Get возвращает путь из кэша. Повреждённое значение удаляется и считается промахом.
func (pc *PathCache) Get(ctx context.Context, q PathQuery) (*CachedPath, bool, error) {
	key := q.Key(pc.prefix)

	data, err := pc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedPath
	if err := pc.codec.Unmarshal(data, &result); err != nil {
		_ = pc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}
	return &result, true, nil
}

// Set сохраняет путь
func (pc *PathCache) Set(ctx context.Context, q PathQuery, result *CachedPath, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = pc.defaultTTL
	}

	stored := *result
	if stored.ComputedAt.IsZero() {
		stored.ComputedAt = time.Now().UTC()
	}
	if !stored.Found {
		stored.Length = -1
		stored.Path = nil
	}

	data, err := pc.codec.Marshal(&stored)
	if err != nil {
		return err
	}
	return pc.cache.Set(ctx, q.Key(pc.prefix), data, ttl)
}

// InvalidateGrid удаляет все пути для сетки
func (pc *PathCache) InvalidateGrid(ctx context.Context, gridHash string) (int64, error) {
	return pc.cache.DeleteByPattern(ctx, GridPattern(pc.prefix, gridHash))
}

// Backend возвращает нижележащий кэш
func (pc *PathCache) Backend() Cache {
	return pc.cache
}
