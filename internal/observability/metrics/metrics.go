// Package metrics provides Prometheus instrumentation for deploykit.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled  bool
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Domain metrics
	assembleTotal        *prometheus.CounterVec
	preflightCheckTotal  *prometheus.CounterVec
	explorerRequestTotal *prometheus.CounterVec
)

// Init initializes the metrics system. Each call starts from a fresh registry.
func Init(enabledFlag bool) {
	enabled = enabledFlag

	if !enabled {
		return
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	// HTTP request counter
	httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration histogram
	httpDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Configuration assembly counter
	assembleTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "config_assemble_total",
			Help: "Total number of configuration assemblies",
		},
		[]string{"result"},
	)

	// Preflight check counter
	preflightCheckTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preflight_check_total",
			Help: "Total number of preflight checks run against networks",
		},
		[]string{"network", "check", "result"},
	)

	// Explorer API request counter
	explorerRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_request_total",
			Help: "Total number of explorer API requests",
		},
		[]string{"network", "result"},
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
