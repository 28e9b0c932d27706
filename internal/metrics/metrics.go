package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ClientsCreated  prometheus.Counter
	ClientsDeleted  prometheus.Counter
	DuplicateClient *prometheus.CounterVec
}

// New creates the metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintechbank_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fintechbank_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ClientsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fintechbank_clients_created_total",
			Help: "Clients successfully created",
		}),
		ClientsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fintechbank_clients_deleted_total",
			Help: "Clients successfully deleted",
		}),
		DuplicateClient: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintechbank_client_duplicate_rejections_total",
			Help: "Client writes rejected for a duplicate unique field",
		}, []string{"field"}),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.ClientsCreated, m.ClientsDeleted, m.DuplicateClient)
	return m
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
