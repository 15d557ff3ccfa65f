package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mindful/backend/internal/model/crisis"
	"github.com/zhouzirui/mindful/backend/internal/service/ai"
	"github.com/zhouzirui/mindful/backend/internal/service/companion"
)

const namespace = "mindful"

// Collector holds the Prometheus metrics of the service on its own registry.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	turns          *prometheus.CounterVec
	remoteCalls    *prometheus.CounterVec
	remoteDuration prometheus.Histogram
	crisisAlerts   prometheus.Counter
}

// NewCollector creates and registers all metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns by reply path and user sentiment",
		}, []string{"outcome", "sentiment"}),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_completions_total",
			Help:      "Remote model calls by result",
		}, []string{"result"}),
		remoteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_completion_duration_seconds",
			Help:      "Remote model call latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		crisisAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crisis_alerts_total",
			Help:      "User messages classified as crisis",
		}),
	}

	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.turns,
		c.remoteCalls,
		c.remoteDuration,
		c.crisisAlerts,
		collectors.NewGoCollector(),
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// TurnCompleted implements companion.Observer.
func (c *Collector) TurnCompleted(outcome companion.Outcome, label sentiment.Label) {
	c.turns.WithLabelValues(string(outcome), string(label)).Inc()
}

// RemoteCompleted implements companion.Observer.
func (c *Collector) RemoteCompleted(reason ai.FailureReason, elapsed time.Duration) {
	result := string(reason)
	if reason == ai.ReasonNone {
		result = "ok"
	}
	c.remoteCalls.WithLabelValues(result).Inc()
	// 熔断或调用方取消时没有完整的请求耗时，不计入延迟
	if reason != ai.ReasonCircuitOpen && reason != ai.ReasonCanceled {
		c.remoteDuration.Observe(elapsed.Seconds())
	}
}

// CrisisAlert counts an alert; it matches the safety.Monitor notify hook.
func (c *Collector) CrisisAlert(crisis.Alert) {
	c.crisisAlerts.Inc()
}

// WatchCircuit exports the breaker state as a gauge: 0 closed, 1 half-open, 2 open.
func (c *Collector) WatchCircuit(state func() string) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "remote_circuit_state",
		Help:      "Remote model circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, func() float64 {
		switch state() {
		case "open":
			return 2
		case "half-open":
			return 1
		default:
			return 0
		}
	}))
}

// Middleware records request counts and latency by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
