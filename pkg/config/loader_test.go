package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noFile(t *testing.T) LoaderOption {
	t.Helper()
	return WithConfigPaths(filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader(noFile(t)).Load()
	require.NoError(t, err)

	assert.Equal(t, "pathfinder-svc", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "anyangle", cfg.Metrics.Namespace)
	assert.Equal(t, "theta", cfg.Search.DefaultAlgorithm)
	assert.Equal(t, 2048, cfg.Search.MaxGridSide)
	assert.True(t, cfg.Search.CheckReachable)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Contains(t, cfg.Bench.Algorithms, "bounded-vg")
	assert.Equal(t, uint64(1), cfg.Bench.Seed)
}

func TestLoader_LoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  name: custom-service
  environment: staging
http:
  port: 9090
log:
  level: debug
search:
  default_algorithm: bounded-vg
  timeout: 5s
bench:
  algorithms: [astar, vg]
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	require.NoError(t, err)

	assert.Equal(t, "custom-service", cfg.App.Name)
	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "bounded-vg", cfg.Search.DefaultAlgorithm)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	assert.Equal(t, []string{"astar", "vg"}, cfg.Bench.Algorithms)

	// Не указанные в файле значения берутся из defaults
	assert.Equal(t, 2048, cfg.Search.MaxGridSide)
}

func TestLoader_ConfigEnvVar(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "from-env.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("app:\n  name: env-file\n"), 0o644))
	t.Setenv("ANYANGLE_CONFIG", configPath)

	cfg, err := NewLoader(noFile(t)).Load()
	require.NoError(t, err)
	assert.Equal(t, "env-file", cfg.App.Name)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("ANYANGLE_APP_NAME", "env-service")
	t.Setenv("ANYANGLE_HTTP_PORT", "8181")
	t.Setenv("ANYANGLE_SEARCH_MAX_GRID_SIDE", "512")
	t.Setenv("ANYANGLE_RATE_LIMIT_ENABLED", "false")
	t.Setenv("ANYANGLE_CACHE_DEFAULT_TTL", "90s")
	t.Setenv("ANYANGLE_BENCH_ALGORITHMS", "jps, theta ,")

	cfg, err := NewLoader(noFile(t)).Load()
	require.NoError(t, err)

	assert.Equal(t, "env-service", cfg.App.Name)
	assert.Equal(t, 8181, cfg.HTTP.Port)
	assert.Equal(t, 512, cfg.Search.MaxGridSide)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, []string{"jps", "theta"}, cfg.Bench.Algorithms)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("http:\n  port: 9090\n"), 0o644))
	t.Setenv("ANYANGLE_HTTP_PORT", "9191")

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.HTTP.Port)
}

func TestLoader_Overrides(t *testing.T) {
	t.Setenv("ANYANGLE_BENCH_WORKERS", "2")

	cfg, err := NewLoader(noFile(t), WithOverrides(map[string]any{
		"bench.workers": 8,
		"bench.output":  "out.xlsx",
	})).Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Bench.Workers)
	assert.Equal(t, "out.xlsx", cfg.Bench.Output)
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("PF_LOG_LEVEL", "warn")

	cfg, err := NewLoader(noFile(t), WithEnvPrefix("PF_")).Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_InvalidConfig(t *testing.T) {
	t.Setenv("ANYANGLE_LOG_LEVEL", "verbose")

	_, err := NewLoader(noFile(t)).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")

	assert.Panics(t, func() { MustLoad(noFile(t)) })
}

func TestEnvToKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"rate_limit_burst_size", "rate_limit.burst_size"},
		{"search_max_grid_cells", "search.max_grid_cells"},
		{"log_file_path", "log.file_path"},
		{"app_name", "app.name"},
		{"config", ""},
		{"unknown_key", ""},
		{"http_", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envToKey(tt.in))
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
