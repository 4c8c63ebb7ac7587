// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App       AppConfig       `koanf:"app"`
	HTTP      HTTPConfig      `koanf:"http"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Cache     CacheConfig     `koanf:"cache"`
	Search    SearchConfig    `koanf:"search"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Bench     BenchConfig     `koanf:"bench"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// HTTPConfig - настройки HTTP сервера
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	H2C             bool          `koanf:"h2c"` // HTTP/2 без TLS
}

// Address возвращает адрес для net.Listen
func (h HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// CacheConfig - настройки кэша путей
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	KeyPrefix  string        `koanf:"key_prefix"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
	Compress   bool          `koanf:"compress"`    // zstd для значений
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SearchConfig - настройки поиска путей
type SearchConfig struct {
	DefaultAlgorithm string        `koanf:"default_algorithm"`
	DefaultSmoothing string        `koanf:"default_smoothing"` // none, once, repeated
	MaxGridSide      int           `koanf:"max_grid_side"`
	MaxGridCells     int           `koanf:"max_grid_cells"`
	Timeout          time.Duration `koanf:"timeout"`
	GraphWorkers     int           `koanf:"graph_workers"` // 0 = GOMAXPROCS
	GraphCacheSize   int           `koanf:"graph_cache_size"`
	CheckReachable   bool          `koanf:"check_reachable"`
}

// RateLimitConfig конфигурация rate limiting
type RateLimitConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Requests        int           `koanf:"requests"`
	Window          time.Duration `koanf:"window"`
	Backend         string        `koanf:"backend"` // memory, redis
	BurstSize       int           `koanf:"burst_size"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	RedisAddr       string        `koanf:"redis_addr"`
}

// BenchConfig конфигурация бенчмарка
type BenchConfig struct {
	Scenario    string   `koanf:"scenario"` // путь к yaml со сценариями
	Algorithms  []string `koanf:"algorithms"`
	Workers     int      `koanf:"workers"`
	Repetitions int      `koanf:"repetitions"`
	Output      string   `koanf:"output"` // путь к xlsx отчёту
	Seed        uint64   `koanf:"seed"`

	// Случайные карты, если сценарий не задан
	RandomMaps    int     `koanf:"random_maps"`
	MapSize       int     `koanf:"map_size"`
	BlockedRatio  float64 `koanf:"blocked_ratio"`
	RandomQueries int     `koanf:"random_queries"`
}

var (
	validLevels     = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validCache      = map[string]bool{"memory": true, "redis": true}
	validSmoothing  = map[string]bool{"none": true, "once": true, "repeated": true}
	validLimiterBkd = map[string]bool{"memory": true, "redis": true}
)

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Cache.Enabled && !validCache[c.Cache.Driver] {
		errs = append(errs, fmt.Sprintf("cache.driver must be one of: memory, redis, got %s", c.Cache.Driver))
	}

	// Валидация поиска
	if c.Search.DefaultAlgorithm == "" {
		errs = append(errs, "search.default_algorithm is required")
	}
	if c.Search.DefaultSmoothing != "" && !validSmoothing[c.Search.DefaultSmoothing] {
		errs = append(errs, fmt.Sprintf("search.default_smoothing must be one of: none, once, repeated, got %s", c.Search.DefaultSmoothing))
	}
	if c.Search.MaxGridSide <= 0 {
		errs = append(errs, "search.max_grid_side must be positive")
	}
	if c.Search.MaxGridCells <= 0 {
		errs = append(errs, "search.max_grid_cells must be positive")
	}
	if c.Search.GraphWorkers < 0 {
		errs = append(errs, "search.graph_workers must be non-negative")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			errs = append(errs, "rate_limit.requests and rate_limit.window must be positive")
		}
		if !validLimiterBkd[c.RateLimit.Backend] {
			errs = append(errs, fmt.Sprintf("rate_limit.backend must be one of: memory, redis, got %s", c.RateLimit.Backend))
		}
	}

	if c.Bench.Workers < 0 || c.Bench.Repetitions < 0 {
		errs = append(errs, "bench.workers and bench.repetitions must be non-negative")
	}
	if c.Bench.BlockedRatio < 0 || c.Bench.BlockedRatio >= 1 {
		errs = append(errs, fmt.Sprintf("bench.blocked_ratio must be in [0, 1), got %v", c.Bench.BlockedRatio))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
