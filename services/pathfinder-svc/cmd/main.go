package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"anyangle/pkg/cache"
	"anyangle/pkg/config"
	"anyangle/pkg/logger"
	"anyangle/pkg/metrics"
	"anyangle/pkg/ratelimit"
	"anyangle/pkg/telemetry"
	"anyangle/services/pathfinder-svc/internal/handlers"
	"anyangle/services/pathfinder-svc/internal/search"
	"anyangle/services/pathfinder-svc/internal/service"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		logger.Init("error")
		logger.Fatal("Failed to load config", "error", err)
	}

	// Инициализируем логгер
	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		Service:    cfg.App.Name,
	})

	logger.Log.Info("Starting Pathfinder Service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Метрики
	m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)
	runtimeCollector := metrics.NewRuntimeCollector(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	if err := m.Register(runtimeCollector); err != nil {
		logger.Log.Warn("Failed to register runtime collector", "error", err)
	}

	// Трейсинг
	tp, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracing", "error", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Tracer shutdown error", "error", err)
		}
	}()

	// Кэш путей
	opts := []service.Option{
		service.WithMetrics(m),
		service.WithArenaPool(search.GetPool()),
	}
	checks := map[string]handlers.Pinger{}
	if cfg.Cache.Enabled {
		backend, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Fatal("Failed to initialize cache", "error", err, "driver", cfg.Cache.Driver)
		}
		defer backend.Close()

		opts = append(opts, service.WithPathCache(cache.NewPathCache(backend, cache.PathCacheOptions{
			Prefix:     cfg.Cache.KeyPrefix,
			DefaultTTL: cfg.Cache.DefaultTTL,
			Compress:   cfg.Cache.Compress,
		})))
		checks["cache"] = backend
		logger.Log.Info("Path cache enabled", "driver", cfg.Cache.Driver)
	}

	// Rate limiter
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(ratelimit.FromConfig(&cfg.RateLimit))
		if err != nil {
			logger.Fatal("Failed to initialize rate limiter", "error", err, "backend", cfg.RateLimit.Backend)
		}
		defer limiter.Close()
	}

	pathfinder := service.NewPathfinder(cfg.Search, opts...)
	runtimeCollector.Track("visibility_graphs", func() float64 { return float64(pathfinder.Graphs().Len()) })
	runtimeCollector.Track("component_indexes", func() float64 { return float64(pathfinder.Components().Len()) })

	router := handlers.NewRouter(handlers.Deps{
		Config:     cfg,
		Pathfinder: pathfinder,
		Metrics:    m,
		Limiter:    limiter,
		Checks:     checks,
	})

	var handler http.Handler = router
	protocol := "HTTP/1.1"
	if cfg.HTTP.H2C {
		handler = h2c.NewHandler(router, &http2.Server{})
		protocol = "HTTP/1.1 + H2C"
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	// Запускаем сервер
	go func() {
		logger.Log.Info("Pathfinder listening",
			"port", cfg.HTTP.Port,
			"protocol", protocol,
			"default_algorithm", cfg.Search.DefaultAlgorithm,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server shutdown error", "error", err)
	}

	logger.Log.Info("Server stopped")
}
