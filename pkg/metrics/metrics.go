package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	JobsTotal           *prometheus.CounterVec
	JobDuration         *prometheus.HistogramVec
	JobsQueuedTotal     prometheus.Counter
	URLsInQueue         prometheus.Gauge
}

// New registers the crawler metrics, plus Go runtime and process collectors,
// on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_jobs_total",
				Help: "Total number of crawl jobs processed.",
			},
			[]string{"outcome"}, // crawled, failed, skipped
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_job_duration_seconds",
				Help:    "Duration of crawl jobs.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 15, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		JobsQueuedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_jobs_queued_total",
				Help: "Total number of jobs added to the frontier.",
			},
		),
		URLsInQueue: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_urls_in_queue",
				Help: "Current number of URLs in the crawl queue.",
			},
		),
	}
}
