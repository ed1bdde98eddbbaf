// metrics — prometheus-коллекторы пробинга сайтов и поиска.
//
// Все методы безопасны для nil-получателя: в тестах сервис и планировщик
// можно собирать без метрик.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "business_finder"

// Probe — метрики планировщика проб и пула рендерера.
type Probe struct {
	results   *prometheus.CounterVec
	stages    *prometheus.HistogramVec
	cacheHits prometheus.Counter
	shared    prometheus.Counter
	tabs      prometheus.Gauge
}

// NewProbe регистрирует коллекторы на reg.
func NewProbe(reg prometheus.Registerer) *Probe {
	f := promauto.With(reg)

	return &Probe{
		results: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "results_total",
			Help:      "Website probe results by status.",
		}, []string{"status"}),
		stages: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "stage_duration_seconds",
			Help:      "Duration of probe stages (reach, render).",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}, []string{"stage"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "cache_hits_total",
			Help:      "Probes answered from the result cache.",
		}),
		shared: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "shared_total",
			Help:      "Probe calls that joined an in-flight probe for the same key.",
		}),
		tabs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "renderer",
			Name:      "tabs_in_use",
			Help:      "Renderer tabs currently open.",
		}),
	}
}

func (m *Probe) Result(status string) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(status).Inc()
}

func (m *Probe) Stage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Probe) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Probe) Shared() {
	if m == nil {
		return
	}
	m.shared.Inc()
}

// Tabs подходит как наблюдатель для website.Pool.OnTabsChanged.
func (m *Probe) Tabs(n int) {
	if m == nil {
		return
	}
	m.tabs.Set(float64(n))
}

// Search — метрики запросов поиска.
type Search struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	found    prometheus.Histogram
}

// NewSearch регистрирует коллекторы поиска на reg.
func NewSearch(reg prometheus.Registerer) *Search {
	f := promauto.With(reg)

	return &Search{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Search and details requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "End-to-end search duration including probes.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		found: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "results",
			Help:      "Businesses returned per search after filtering.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),
	}
}

func (m *Search) Observe(op, outcome string, d time.Duration, n int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, outcome).Inc()
	if op == "search" && outcome == "ok" {
		m.duration.Observe(d.Seconds())
		m.found.Observe(float64(n))
	}
}
