package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "ANYANGLE_"
	configEnvVar = "ANYANGLE_CONFIG"
)

// Loader загружает конфигурацию из разных источников
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
	overrides   map[string]any
}

// NewLoader создаёт новый загрузчик конфигурации
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/anyangle/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption - опция для конфигурации загрузчика
type LoaderOption func(*Loader)

// WithConfigPaths устанавливает пути поиска конфигурации
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix устанавливает префикс переменных окружения
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithOverrides задаёт значения поверх всех источников (флаги командной строки)
func WithOverrides(values map[string]any) LoaderOption {
	return func(l *Loader) {
		l.overrides = values
	}
}

// Load загружает конфигурацию с приоритетом:
// 1. Defaults (самый низкий)
// 2. Config file (yaml)
// 3. Environment variables
// 4. Overrides (самый высокий)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Файл не обязателен
	if err := l.loadConfigFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	if len(l.overrides) > 0 {
		if err := l.k.Load(confmap.Provider(l.overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Defaults возвращает значения по умолчанию в виде плоской карты ключей
func Defaults() map[string]any {
	return map[string]any{
		// App
		"app.name":        "pathfinder-svc",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// HTTP
		"http.port":             8080,
		"http.read_timeout":     30 * time.Second,
		"http.write_timeout":    60 * time.Second,
		"http.shutdown_timeout": 10 * time.Second,
		"http.max_body_bytes":   8 * 1024 * 1024,
		"http.h2c":              true,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.path":      "/metrics",
		"metrics.namespace": "anyangle",
		"metrics.subsystem": "",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "pathfinder-svc",
		"tracing.sample_rate":  0.1,

		// Cache
		"cache.enabled":     false,
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.key_prefix":  "anyangle:path:",
		"cache.default_ttl": 10 * time.Minute,
		"cache.max_entries": 10000,
		"cache.compress":    true,

		// Search
		"search.default_algorithm": "theta",
		"search.default_smoothing": "none",
		"search.max_grid_side":     2048,
		"search.max_grid_cells":    1 << 22,
		"search.timeout":           30 * time.Second,
		"search.graph_workers":     0,
		"search.graph_cache_size":  16,
		"search.check_reachable":   true,

		// Rate Limit
		"rate_limit.enabled":          true,
		"rate_limit.requests":         100,
		"rate_limit.window":           time.Minute,
		"rate_limit.backend":          "memory",
		"rate_limit.burst_size":       10,
		"rate_limit.cleanup_interval": 5 * time.Minute,

		// Bench
		"bench.algorithms":     []string{"astar", "theta", "lazy-theta", "jps", "vg", "bounded-vg"},
		"bench.workers":        0,
		"bench.repetitions":    1,
		"bench.output":         "bench.xlsx",
		"bench.seed":           1,
		"bench.random_maps":    4,
		"bench.map_size":       64,
		"bench.blocked_ratio":  0.2,
		"bench.random_queries": 25,
	}
}

// loadDefaults загружает значения по умолчанию
func (l *Loader) loadDefaults() error {
	return l.k.Load(confmap.Provider(Defaults(), "."), nil)
}

// loadConfigFile загружает конфигурацию из файла
func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// loadEnv загружает конфигурацию из переменных окружения.
// ANYANGLE_SEARCH_MAX_GRID_SIDE -> search.max_grid_side
func (l *Loader) loadEnv() error {
	return l.k.Load(env.ProviderWithValue(l.envPrefix, ".", func(envKey string, value string) (string, interface{}) {
		key := envToKey(strings.ToLower(strings.TrimPrefix(envKey, l.envPrefix)))
		if key == "" {
			return "", nil
		}

		if sliceFields[key] {
			return key, splitAndTrim(value)
		}

		return key, value
	}), nil)
}

// sections - секции верхнего уровня; длинные имена раньше коротких
var sections = []string{"rate_limit", "metrics", "tracing", "search", "cache", "bench", "http", "app", "log"}

// envToKey отделяет секцию, остальная часть имени остаётся ключом как есть.
// Пустая строка означает, что переменная не относится к конфигурации.
func envToKey(name string) string {
	if name == "config" {
		return ""
	}
	for _, section := range sections {
		if rest, ok := strings.CutPrefix(name, section+"_"); ok && rest != "" {
			return section + "." + rest
		}
	}
	return ""
}

// sliceFields - поля, которые должны парситься как слайсы
var sliceFields = map[string]bool{
	"bench.algorithms": true,
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MustLoad загружает конфигурацию или паникует
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load - удобная функция для загрузки с дефолтными настройками
func Load() (*Config, error) {
	return NewLoader().Load()
}
