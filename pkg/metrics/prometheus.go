package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics контейнер метрик сервиса
type Metrics struct {
	// HTTP метрики
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Метрики поиска
	SearchesTotal       *prometheus.CounterVec
	SearchDuration      *prometheus.HistogramVec
	SettledNodes        *prometheus.HistogramVec
	PathLength          *prometheus.HistogramVec
	ArenaReallocations  *prometheus.CounterVec
	GraphBuildDuration  prometheus.Histogram
	GraphNodes          prometheus.Histogram
	ShortCircuitedTotal *prometheus.CounterVec

	// Кэш
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

var (
	defaultMetrics *Metrics
	defaultMu      sync.Mutex
)

// InitMetrics регистрирует метрики в DefaultRegisterer и делает их глобальными
func InitMetrics(namespace, subsystem string) *Metrics {
	m := New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, namespace, subsystem)

	defaultMu.Lock()
	defaultMetrics = m
	defaultMu.Unlock()
	return m
}

// NewIsolated создаёт метрики в собственном реестре (тесты, бенчмарк)
func NewIsolated(namespace, subsystem string) *Metrics {
	reg := prometheus.NewRegistry()
	return New(reg, reg, namespace, subsystem)
}

// New создаёт метрики в заданном реестре
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer, namespace, subsystem string) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "code"},
		),

		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"route"},
		),

		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		SearchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "searches_total",
				Help:      "Total number of path searches",
			},
			[]string{"algorithm", "status"},
		),

		SearchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "search_duration_seconds",
				Help:      "Duration of path searches",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
			},
			[]string{"algorithm"},
		),

		SettledNodes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "search_settled_nodes",
				Help:      "Number of nodes settled per search",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
			},
			[]string{"algorithm"},
		),

		PathLength: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "path_length",
				Help:      "Euclidean length of found paths",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
			},
			[]string{"algorithm"},
		),

		ArenaReallocations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "arena_reallocations_total",
				Help:      "Searches that had to reallocate scratch memory",
			},
			[]string{"algorithm"},
		),

		GraphBuildDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "visibility_graph_build_seconds",
				Help:      "Duration of visibility graph construction",
				Buckets:   []float64{.001, .01, .05, .1, .5, 1, 5, 30, 120},
			},
		),

		GraphNodes: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "visibility_graph_nodes",
				Help:      "Number of nodes in built visibility graphs",
				Buckets:   prometheus.ExponentialBuckets(4, 4, 10),
			},
		),

		ShortCircuitedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "searches_short_circuited_total",
				Help:      "Queries answered without running a search",
			},
			[]string{"reason"},
		),

		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),

		CacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),

		ServiceInfo: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),

		registerer: reg,
		gatherer:   gatherer,
	}
}

// Register добавляет коллектор в реестр этих метрик
func (m *Metrics) Register(c prometheus.Collector) error {
	return m.registerer.Register(c)
}

// Get возвращает глобальные метрики, при первом вызове создаёт изолированные
func Get() *Metrics {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultMetrics == nil {
		defaultMetrics = NewIsolated("anyangle", "")
	}
	return defaultMetrics
}

// RecordHTTPRequest записывает метрики HTTP запроса
func (m *Metrics) RecordHTTPRequest(route string, code int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// SearchOutcome итог одного поиска
type SearchOutcome struct {
	Algorithm   string
	Found       bool
	Err         bool
	Duration    time.Duration
	Settled     int
	Length      float64
	Reallocated bool
}

// RecordSearch записывает метрики поиска
func (m *Metrics) RecordSearch(o SearchOutcome) {
	status := "found"
	switch {
	case o.Err:
		status = "error"
	case !o.Found:
		status = "no_path"
	}

	m.SearchesTotal.WithLabelValues(o.Algorithm, status).Inc()
	if o.Err {
		return
	}
	m.SearchDuration.WithLabelValues(o.Algorithm).Observe(o.Duration.Seconds())
	m.SettledNodes.WithLabelValues(o.Algorithm).Observe(float64(o.Settled))
	if o.Found {
		m.PathLength.WithLabelValues(o.Algorithm).Observe(o.Length)
	}
	if o.Reallocated {
		m.ArenaReallocations.WithLabelValues(o.Algorithm).Inc()
	}
}

// RecordGraphBuild записывает построение графа видимости
func (m *Metrics) RecordGraphBuild(nodes int, duration time.Duration) {
	m.GraphBuildDuration.Observe(duration.Seconds())
	m.GraphNodes.Observe(float64(nodes))
}

// RecordShortCircuit отмечает запрос, на который ответили без поиска
func (m *Metrics) RecordShortCircuit(reason string) {
	m.ShortCircuitedTotal.WithLabelValues(reason).Inc()
}

// RecordCache записывает попадание или промах кэша
func (m *Metrics) RecordCache(cache string, hit bool) {
	if hit {
		m.CacheHits.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics по реестру этих метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Handler возвращает HTTP handler для DefaultGatherer
func Handler() http.Handler {
	return promhttp.Handler()
}
