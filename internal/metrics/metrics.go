// Package metrics exposes request lifecycle and HTTP measurements to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmcdole/vidtube/internal/api"
	"github.com/mmcdole/vidtube/internal/request"
)

var (
	_ request.Recorder = (*Collector)(nil)
	_ api.Recorder     = (*Collector)(nil)
)

// Collector records operation settlements and HTTP responses
type Collector struct {
	operations  *prometheus.CounterVec
	stale       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	httpStatus  *prometheus.CounterVec
	httpLatency prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_operations_total",
			Help: "Settled operations by name and final status",
		}, []string{"op", "status"}),
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_operation_stale_total",
			Help: "Settlements discarded because a newer request or a reset superseded them",
		}, []string{"op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidtube_operation_duration_seconds",
			Help:    "Time from issue to settlement",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_http_responses_total",
			Help: "API responses by HTTP status code",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vidtube_http_latency_seconds",
			Help:    "API round trip latency",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.operations,
		c.stale,
		c.duration,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordSettled(op string, status request.Status, elapsed time.Duration) {
	c.operations.WithLabelValues(op, status.String()).Inc()
	c.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (c *Collector) RecordStale(op string) {
	c.stale.WithLabelValues(op).Inc()
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordHTTPLatency(elapsed time.Duration) {
	c.httpLatency.Observe(elapsed.Seconds())
}

// Handler returns the Prometheus scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute returns a mux serving /metrics
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
