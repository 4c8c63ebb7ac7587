package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache in-memory кэш с LRU вытеснением и фоновой очисткой
// просроченных записей
type MemoryCache struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	lru        *list.List // front = последний доступ
	defaultTTL time.Duration
	maxEntries int
	bytes      int64

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	closed atomic.Bool
	stopCh chan struct{}
	wg     sync.WaitGroup
}

type memoryItem struct {
	key       string
	value     []byte
	expiresAt time.Time
}

func (i *memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// NewMemoryCache создаёт новый in-memory кэш
func NewMemoryCache(opts *Options) *MemoryCache {
	if opts == nil {
		opts = DefaultOptions()
	}

	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	cleanupInterval := opts.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	c := &MemoryCache{
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		defaultTTL: opts.DefaultTTL,
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop(cleanupInterval)

	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return nil, ErrKeyNotFound
	}
	item := el.Value.(*memoryItem)
	if item.expired(time.Now()) {
		c.removeElement(el)
		c.misses.Add(1)
		return nil, ErrKeyNotFound
	}

	c.hits.Add(1)
	c.lru.MoveToFront(el)

	// Возвращаем копию
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		item := el.Value.(*memoryItem)
		c.bytes += int64(len(stored) - len(item.value))
		item.value = stored
		item.expiresAt = expiresAt
		c.lru.MoveToFront(el)
		return nil
	}

	for len(c.items) >= c.maxEntries {
		c.removeElement(c.lru.Back())
		c.evictions.Add(1)
	}

	c.items[key] = c.lru.PushFront(&memoryItem{key: key, value: stored, expiresAt: expiresAt})
	c.bytes += int64(len(stored))
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
	return nil
}

func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrCacheClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	return ok && !el.Value.(*memoryItem).expired(time.Now()), nil
}

func (c *MemoryCache) DeleteByPattern(_ context.Context, pattern string) (int64, error) {
	if c.closed.Load() {
		return 0, ErrCacheClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var count int64
	for key, el := range c.items {
		if matchPattern(pattern, key) {
			c.removeElement(el)
			count++
		}
	}
	return count, nil
}

func (c *MemoryCache) Stats(_ context.Context) (*Stats, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	c.mu.Lock()
	stats := &Stats{
		TotalKeys:   int64(len(c.items)),
		MemoryBytes: c.bytes,
		Backend:     BackendMemory,
	}
	c.mu.Unlock()

	stats.Hits = c.hits.Load()
	stats.Misses = c.misses.Load()
	stats.Evictions = c.evictions.Load()
	stats.computeHitRate()
	return stats, nil
}

// Len возвращает число записей, включая ещё не удалённые просроченные
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *MemoryCache) Ping(context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return nil
}

func (c *MemoryCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.stopCh)
	c.wg.Wait()

	c.mu.Lock()
	c.items = make(map[string]*list.Element)
	c.lru.Init()
	c.bytes = 0
	c.mu.Unlock()
	return nil
}

// removeElement вызывается под c.mu
func (c *MemoryCache) removeElement(el *list.Element) {
	item := c.lru.Remove(el).(*memoryItem)
	delete(c.items, item.key)
	c.bytes -= int64(len(item.value))
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryCache) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, el := range c.items {
		if el.Value.(*memoryItem).expired(now) {
			c.removeElement(el)
		}
	}
}

// matchPattern проверяет ключ по шаблону, где '*' означает любую
// подстроку; без '*' требуется точное совпадение
func matchPattern(pattern, key string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == key
	}

	if !strings.HasPrefix(key, parts[0]) {
		return false
	}
	key = key[len(parts[0]):]

	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(key, part)
		if i < 0 {
			return false
		}
		key = key[i+len(part):]
	}
	return strings.HasSuffix(key, last)
}
