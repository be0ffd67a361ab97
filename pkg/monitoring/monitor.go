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

	SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_sessions_created_total",
			Help: "Total number of interview sessions created",
		},
	)

	AnswersSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_answers_submitted_total",
			Help: "Total number of answers appended to sessions",
		},
	)

	// GeneratorFallbacks kind 取值 question / feedback
	GeneratorFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_generator_fallbacks_total",
			Help: "Generator calls answered with the fixed fallback text",
		},
		[]string{"kind"},
	)
)

func Init() {
	Register(prometheus.DefaultRegisterer)
}

func Register(reg prometheus.Registerer) {
	reg.MustRegister(RequestCounter)
	reg.MustRegister(RequestDuration)
	reg.MustRegister(SessionsCreated)
	reg.MustRegister(AnswersSubmitted)
	reg.MustRegister(GeneratorFallbacks)
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
