package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the gateway
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transactions    *prometheus.CounterVec
}

// NewMetrics registers the gateway collectors on the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vitaldocs_http_requests_total",
			Help: "HTTP requests handled by the registry gateway",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vitaldocs_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vitaldocs_registry_transactions_total",
			Help: "Registry transactions issued through the gateway",
		}, []string{"operation", "outcome"}),
	}
}

// RecordRequest records one handled HTTP request
func (m *Metrics) RecordRequest(method, path string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTransaction records one issued registry transaction
func (m *Metrics) RecordTransaction(operation string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.transactions.WithLabelValues(operation, outcome).Inc()
}

// statusRecorder captures the response status for middleware
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
