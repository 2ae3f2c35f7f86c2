package stress

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"liquidity_stress/pkg/core/pipeline"
	coreStress "liquidity_stress/pkg/core/stress"
)

const metricsNamespace = "liquidity_stress"

// Metrics owns the Prometheus collectors for the API.
type Metrics struct {
	registry *prometheus.Registry

	httpDuration *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	covenants    *prometheus.CounterVec
	secDuration  *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Stress runs by outcome.",
		}, []string{"outcome"}),
		covenants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "scenario_covenant_results_total",
			Help:      "Overall covenant result per evaluated scenario.",
		}, []string{"scenario", "result"}),
		secDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "sec_request_duration_seconds",
			Help:      "Latency of SEC EDGAR requests by step.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"step", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ticker_directory_cache_total",
			Help:      "Ticker directory cache hits and misses.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.httpDuration, m.runs, m.covenants, m.secDuration, m.cacheLookups,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSEC has the ingest.RequestObserver signature.
func (m *Metrics) ObserveSEC(step string, elapsed time.Duration, err error) {
	m.secDuration.WithLabelValues(step, outcome(err)).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRun(res *pipeline.Result, err error) {
	m.runs.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return
	}
	for _, row := range res.Rows {
		result := "fail"
		if row.Covenants.OverallPass {
			result = "pass"
		}
		m.covenants.WithLabelValues(scenarioLabel(row.Scenario.Name), result).Inc()
	}
}

func (m *Metrics) observeCache(hit bool) {
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// instrument records request latency under the matched chi route pattern.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// scenarioLabel keeps label cardinality bounded for user-defined decks.
func scenarioLabel(name string) string {
	switch name {
	case coreStress.ScenarioBase, coreStress.ScenarioMild, coreStress.ScenarioSevere:
		return name
	}
	return "custom"
}
