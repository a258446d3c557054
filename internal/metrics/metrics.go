// Package metrics exposes Prometheus instrumentation for the HTTP boundary
// and forecast runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service. A private
// registry keeps repeated construction (e.g. in tests) panic-free.
type Metrics struct {
	registry *prometheus.Registry

	UploadsTotal   prometheus.Counter
	ForecastsTotal prometheus.Counter

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UploadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockforecast_uploads_total",
			Help: "Number of datasets successfully ingested",
		}),
		ForecastsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockforecast_forecasts_total",
			Help: "Number of forecast results successfully produced",
		}),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockforecast_http_requests_total",
				Help: "HTTP requests by endpoint and status code",
			},
			[]string{"endpoint", "code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockforecast_http_request_duration_seconds",
				Help:    "HTTP request latency by endpoint",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
