package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhyrak/go-timetable/internal/scheduler"
)

// Collector records generation and HTTP metrics on its own registry. It
// implements scheduler.Observer.
type Collector struct {
	registry *prometheus.Registry
	handler  http.Handler

	attempts        *prometheus.CounterVec
	attemptDuration prometheus.Histogram
	conflicts       prometheus.Histogram
	generations     *prometheus.CounterVec
	generationTime  prometheus.Histogram
	bestConflicts   prometheus.Gauge
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

var _ scheduler.Observer = (*Collector)(nil)

func New() *Collector {
	registry := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_attempts_total",
		Help: "Total number of generation attempts by strategy",
	}, []string{"strategy"})

	attemptDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_attempt_duration_seconds",
		Help:    "Duration of a single generation attempt",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	conflicts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_attempt_conflicts",
		Help:    "Conflicts left by a single generation attempt",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generations_total",
		Help: "Total number of Generate calls by outcome",
	}, []string{"outcome"})

	generationTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of a full Generate call",
		Buckets: prometheus.DefBuckets,
	})

	bestConflicts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_best_conflicts",
		Help: "Conflict count of the last returned timetable",
	})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	registry.MustRegister(attempts, attemptDuration, conflicts, generations, generationTime, bestConflicts, requestDuration, requestTotal)

	return &Collector{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		attempts:        attempts,
		attemptDuration: attemptDuration,
		conflicts:       conflicts,
		generations:     generations,
		generationTime:  generationTime,
		bestConflicts:   bestConflicts,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Collector) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Collector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Collector) ObserveAttempt(strategy scheduler.Strategy, conflicts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(strategy.Name).Inc()
	m.attemptDuration.Observe(elapsed.Seconds())
	m.conflicts.Observe(float64(conflicts))
}

func (m *Collector) ObserveResult(r *scheduler.Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome(r)).Inc()
	m.generationTime.Observe(elapsed.Seconds())
	m.bestConflicts.Set(float64(len(r.Conflicts)))
}

// ObserveFailure counts a Generate call that returned no timetable.
func (m *Collector) ObserveFailure() {
	if m == nil {
		return
	}
	m.generations.WithLabelValues("failed").Inc()
}

func (m *Collector) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

func outcome(r *scheduler.Result) string {
	switch {
	case len(r.Conflicts) == 0:
		return "valid"
	case r.Aborted:
		return "aborted"
	default:
		return "conflicts"
	}
}
