package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Registry  *prometheus.Registry
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(service string) *ServerMetrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fooddash",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fooddash",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	registry.MustRegister(requests, latency)
	return &ServerMetrics{Registry: registry, Requests: requests, LatencyMS: latency}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records every request under its mux route template so that
// path parameters do not explode the label set.
func (m *ServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		handler := "unmatched"
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				handler = r.Method + " " + tmpl
			}
		}
		m.Requests.WithLabelValues(handler, strconv.Itoa(rec.status)).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	})
}

// OrderMetrics counts BFF domain events. A nil *OrderMetrics records nothing.
type OrderMetrics struct {
	CartMutations      *prometheus.CounterVec
	OrdersPlaced       prometheus.Counter
	SubmissionFailures prometheus.Counter
	Reorders           *prometheus.CounterVec
}

func NewOrderMetrics(registry *prometheus.Registry) *OrderMetrics {
	m := &OrderMetrics{
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fooddash",
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by kind.",
		}, []string{"mutation"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fooddash",
			Name:      "orders_placed_total",
			Help:      "Orders accepted by the order store.",
		}),
		SubmissionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fooddash",
			Name:      "order_submission_failures_total",
			Help:      "Order submissions that failed remotely.",
		}),
		Reorders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fooddash",
			Name:      "reorders_total",
			Help:      "Reorder attempts by outcome.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(m.CartMutations, m.OrdersPlaced, m.SubmissionFailures, m.Reorders)
	return m
}

func (m *OrderMetrics) CartMutation(kind string) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(kind).Inc()
}

func (m *OrderMetrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.OrdersPlaced.Inc()
}

func (m *OrderMetrics) SubmissionFailed() {
	if m == nil {
		return
	}
	m.SubmissionFailures.Inc()
}

func (m *OrderMetrics) Reorder(outcome string) {
	if m == nil {
		return
	}
	m.Reorders.WithLabelValues(outcome).Inc()
}
