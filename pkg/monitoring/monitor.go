package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	JourneyCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_processed_total",
			Help: "Journeys processed by terminal status",
		},
		[]string{"status"},
	)

	ProviderResultCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_provider_results_total",
			Help: "Search results returned per provider",
		},
		[]string{"provider"},
	)

	FetchFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_failures_total",
			Help: "Content fetch failures by strategy",
		},
		[]string{"strategy"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(JourneyCounter)
	prometheus.MustRegister(ProviderResultCounter)
	prometheus.MustRegister(FetchFailureCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
