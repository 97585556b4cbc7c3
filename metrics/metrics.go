package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the prometheus collectors of the REST API.
type Metrics struct {
	ChecksTotal        *prometheus.CounterVec
	CheckErrors        *prometheus.CounterVec
	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	RateLimitDropped   prometheus.Counter
}

func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elapsed_checks_total",
			Help: "Total number of evaluated elapsed-time checks.",
		}, []string{"unit", "result"}),
		CheckErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elapsed_check_errors_total",
			Help: "Total number of rejected elapsed-time checks.",
		}, []string{"kind"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "elapsed_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "elapsed_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "elapsed_ratelimit_dropped_total",
			Help: "Total number of requests dropped by the rate limiter.",
		}),
	}

	registry.MustRegister(
		m.ChecksTotal,
		m.CheckErrors,
		m.RequestsTotal,
		m.RequestDurationSec,
		m.RateLimitDropped,
	)
	return m
}

func (m *Metrics) CheckEvaluated(unit string, elapsed bool) {
	result := "not_elapsed"
	if elapsed {
		result = "elapsed"
	}
	m.ChecksTotal.WithLabelValues(unit, result).Inc()
}

func (m *Metrics) CheckRejected(kind string) {
	m.CheckErrors.WithLabelValues(kind).Inc()
}

// Middleware records count and duration of every request, labelled by the
// matched route pattern rather than the raw path.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "other"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestsTotal.WithLabelValues(route, c.Request.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, c.Request.Method, status).Observe(time.Since(startedAt).Seconds())
	}
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
