package providers

import (
	"listkeeper/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncSnapshotsTotal(result string)
	ObserveCommitDuration(duration time.Duration)
	IncSnapshotsPruned(count int)
	IncCatalogRequests(result string)
	SetSchedulerRunning(running bool)
	SetSubscribers(count int)
}

type MetricsProvider struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	snapshotsTotal   *prometheus.CounterVec
	commitDuration   prometheus.Histogram
	snapshotsPruned  prometheus.Counter
	catalogRequests  *prometheus.CounterVec
	schedulerRunning prometheus.Gauge
	subscribers      prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncSnapshotsTotal(result string) {
	m.snapshotsTotal.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) ObserveCommitDuration(duration time.Duration) {
	m.commitDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncSnapshotsPruned(count int) {
	m.snapshotsPruned.Add(float64(count))
}

func (m *MetricsProvider) IncCatalogRequests(result string) {
	m.catalogRequests.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) SetSchedulerRunning(running bool) {
	if running {
		m.schedulerRunning.Set(1)
		return
	}
	m.schedulerRunning.Set(0)
}

func (m *MetricsProvider) SetSubscribers(count int) {
	m.subscribers.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "listkeeper_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "listkeeper_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "listkeeper_cache_hits_total",
			Help: "Total number of snapshot meta cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "listkeeper_cache_misses_total",
			Help: "Total number of snapshot meta cache misses",
		}),

		snapshotsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "listkeeper_snapshots_total",
			Help: "Snapshot commit attempts by result",
		}, []string{"result"}),

		commitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "listkeeper_commit_duration_seconds",
			Help:    "Duration of snapshot commits in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		snapshotsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "listkeeper_snapshots_pruned_total",
			Help: "Snapshots removed by retention",
		}),

		catalogRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "listkeeper_catalog_requests_total",
			Help: "Catalog fetches by result",
		}, []string{"result"}),

		schedulerRunning: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "listkeeper_scheduler_running",
			Help: "1 while the backup scheduler worker is running",
		}),

		subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "listkeeper_event_subscribers",
			Help: "Number of connected live event subscribers",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncSnapshotsTotal(_ string)                       {}
func (n *noopMetrics) ObserveCommitDuration(_ time.Duration)            {}
func (n *noopMetrics) IncSnapshotsPruned(_ int)                         {}
func (n *noopMetrics) IncCatalogRequests(_ string)                      {}
func (n *noopMetrics) SetSchedulerRunning(_ bool)                       {}
func (n *noopMetrics) SetSubscribers(_ int)                             {}
