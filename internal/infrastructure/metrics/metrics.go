package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	BooksTotal      prometheus.Gauge
	StorageOps      *prometheus.CounterVec
	StorageDuration *prometheus.HistogramVec
	SnapshotBytes   prometheus.Gauge
}

// New creates and registers all collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		BooksTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shelfmate_books",
			Help: "Number of books currently in the catalog",
		}),
		StorageOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfmate_snapshot_storage_operations_total",
				Help: "Snapshot storage operations by kind and result",
			},
			[]string{"op", "result"},
		),
		StorageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfmate_snapshot_storage_duration_seconds",
				Help:    "Snapshot storage operation latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		SnapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shelfmate_snapshot_bytes",
			Help: "Size of the last written snapshot; zero after removal",
		}),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.BooksTotal,
		m.StorageOps,
		m.StorageDuration,
		m.SnapshotBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
