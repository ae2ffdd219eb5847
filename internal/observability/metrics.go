// Package observability exposes Prometheus metrics for the HTTP layer and
// the checkout flow.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"mobile-pos/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the application metrics on a private registry
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	checkouts       prometheus.Counter
	rejections      *prometheus.CounterVec
	revenue         prometheus.Counter
	itemsSold       prometheus.Counter
}

// NewMetrics initialises the registry with HTTP, checkout and runtime metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mobile_pos",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mobile_pos",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mobile_pos",
		Subsystem: "billing",
		Name:      "checkouts_total",
		Help:      "Sales persisted by checkout.",
	})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mobile_pos",
		Subsystem: "billing",
		Name:      "checkout_rejections_total",
		Help:      "Checkouts that persisted nothing, by reason.",
	}, []string{"reason"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mobile_pos",
		Subsystem: "billing",
		Name:      "revenue_total",
		Help:      "Sum of final amounts of persisted sales.",
	})
	itemsSold := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mobile_pos",
		Subsystem: "billing",
		Name:      "items_sold_total",
		Help:      "Units sold through checkout.",
	})

	registry.MustRegister(
		requests, duration, checkouts, rejections, revenue, itemsSold,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		checkouts:       checkouts,
		rejections:      rejections,
		revenue:         revenue,
		itemsSold:       itemsSold,
	}
}

// Handler returns the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records a counter and a latency sample for every request
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// CheckoutCompleted counts a persisted sale
func (m *Metrics) CheckoutCompleted(sale *domain.Sale) {
	if m == nil {
		return
	}
	m.checkouts.Inc()
	m.revenue.Add(sale.FinalAmount.InexactFloat64())
	m.itemsSold.Add(float64(sale.ItemCount()))
}

// CheckoutRejected counts a checkout that wrote nothing
func (m *Metrics) CheckoutRejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// Registerer exposes the registry for custom collectors
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
