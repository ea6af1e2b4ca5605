package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/focitech/focitech/engine/infra/monitoring/metrics"
	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "focitech"

// Service owns the prometheus registry and the collectors shared by the HTTP
// server, the backend client and the rate limiter. A nil *Service is valid
// and records nothing.
type Service struct {
	registry *prom.Registry
	requests *prom.CounterVec
	latency  *prom.HistogramVec
	backend  *prom.HistogramVec
	limited  *prom.CounterVec
}

func NewMonitoringService() *Service {
	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s := &Service{
		registry: registry,
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   metrics.HTTPDurationBuckets,
		}, []string{"method", "route"}),
		backend: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of calls to the agency REST backend.",
			Buckets:   metrics.BackendDurationBuckets,
		}, []string{"method", "resource", "status"}),
		limited: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"route"}),
	}
	registry.MustRegister(s.requests, s.latency, s.backend, s.limited)
	return s
}

func (s *Service) Registry() *prom.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

// GinMiddleware records request counts and latency per matched route.
func (s *Service) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		s.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		s.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveBackend matches api.Observer. status 0 means the call never got a
// response.
func (s *Service) ObserveBackend(method, resource string, status int, elapsed time.Duration) {
	if s == nil {
		return
	}
	s.backend.WithLabelValues(method, resource, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (s *Service) RateLimited(route string) {
	if s == nil {
		return
	}
	s.limited.WithLabelValues(route).Inc()
}

// ExporterHandler serves the registry in the prometheus text format.
func (s *Service) ExporterHandler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}
