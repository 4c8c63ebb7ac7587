package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GaugeFunc источник значения для RuntimeCollector
type GaugeFunc func() float64

// RuntimeCollector собирает метрики runtime и размеры внутренних кэшей
// в момент скрейпа
type RuntimeCollector struct {
	goroutines *prometheus.Desc
	heapAlloc  *prometheus.Desc
	gcRuns     *prometheus.Desc
	gcPause    *prometheus.Desc
	sources    *prometheus.Desc

	mu    sync.Mutex
	funcs map[string]GaugeFunc
}

// NewRuntimeCollector создаёт новый коллектор runtime метрик
func NewRuntimeCollector(namespace, subsystem string) *RuntimeCollector {
	return &RuntimeCollector{
		goroutines: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "runtime_goroutines"),
			"Number of goroutines",
			nil, nil,
		),
		heapAlloc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "runtime_heap_alloc_bytes"),
			"Bytes of allocated heap objects",
			nil, nil,
		),
		gcRuns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "runtime_gc_runs_total"),
			"Total number of completed GC cycles",
			nil, nil,
		),
		gcPause: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "runtime_gc_pause_seconds"),
			"Last GC pause duration",
			nil, nil,
		),
		sources: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "entries"),
			"Entries held by an internal cache or pool",
			[]string{"source"}, nil,
		),
		funcs: make(map[string]GaugeFunc),
	}
}

// Track добавляет именованный источник, значение читается при каждом скрейпе
func (c *RuntimeCollector) Track(source string, fn GaugeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs[source] = fn
}

// Describe implements prometheus.Collector
func (c *RuntimeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.goroutines
	ch <- c.heapAlloc
	ch <- c.gcRuns
	ch <- c.gcPause
	ch <- c.sources
}

// Collect implements prometheus.Collector
func (c *RuntimeCollector) Collect(ch chan<- prometheus.Metric) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	ch <- prometheus.MustNewConstMetric(c.goroutines, prometheus.GaugeValue, float64(runtime.NumGoroutine()))
	ch <- prometheus.MustNewConstMetric(c.heapAlloc, prometheus.GaugeValue, float64(stats.HeapAlloc))
	ch <- prometheus.MustNewConstMetric(c.gcRuns, prometheus.CounterValue, float64(stats.NumGC))

	// PauseNs кольцевой буфер на 256 значений
	if stats.NumGC > 0 {
		ch <- prometheus.MustNewConstMetric(c.gcPause, prometheus.GaugeValue, float64(stats.PauseNs[(stats.NumGC-1)%256])/1e9)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for source, fn := range c.funcs {
		ch <- prometheus.MustNewConstMetric(c.sources, prometheus.GaugeValue, fn(), source)
	}
}

// RequestTracker считает активные запросы по маршрутам
type RequestTracker struct {
	mu       sync.Mutex
	active   map[string]int
	inFlight prometheus.Gauge
}

// NewRequestTracker создаёт новый трекер запросов
func NewRequestTracker(inFlight prometheus.Gauge) *RequestTracker {
	return &RequestTracker{
		active:   make(map[string]int),
		inFlight: inFlight,
	}
}

// Start отмечает начало запроса
func (t *RequestTracker) Start(route string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active[route]++
	t.inFlight.Inc()
}

// End отмечает завершение запроса. Лишний End игнорируется.
func (t *RequestTracker) End(route string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active[route] > 0 {
		t.active[route]--
		t.inFlight.Dec()
	}
}

// Active возвращает число активных запросов маршрута
func (t *RequestTracker) Active(route string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[route]
}

// Timer измеряет длительность и пишет её в гистограмму
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer создаёт таймер для гистограммы с метками
func NewTimer(histogram *prometheus.HistogramVec, labels ...string) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram.WithLabelValues(labels...),
	}
}

// Elapsed возвращает время с момента создания без записи
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration записывает длительность
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	t.observer.Observe(duration.Seconds())
	return duration
}
