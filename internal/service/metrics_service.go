package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pager load outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeStale     = "stale"
	OutcomeFailed    = "failed"
)

// MetricsService encapsulates Prometheus instrumentation for the discovery pipeline.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	fetchDuration   *prometheus.HistogramVec
	hydrateDuration prometheus.Observer
	pagerLoads      *prometheus.CounterVec
	scannedPages    prometheus.Observer
	staleDiscards   prometheus.Counter
	activeSessions  prometheus.Gauge
	prefetchDropped prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "discovery_remote_fetch_seconds",
		Help:    "Duration of remote trainer page fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	hydrateDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "discovery_hydration_seconds",
		Help:    "Duration of relation hydration per page",
		Buckets: prometheus.DefBuckets,
	})

	pagerLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_loads_total",
		Help: "Scan-ahead loads by outcome",
	}, []string{"outcome"})

	scannedPages := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "discovery_scanned_pages",
		Help:    "Remote pages scanned per load",
		Buckets: []float64{1, 2, 3, 4, 5, 8},
	})

	staleDiscards := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discovery_stale_discards_total",
		Help: "Results dropped because their session token was superseded",
	})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "discovery_active_sessions",
		Help: "Discovery sessions currently held in memory",
	})

	prefetchDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discovery_prefetch_dropped_total",
		Help: "Prefetch jobs rejected by a full or busy queue",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		fetchDuration, hydrateDuration, pagerLoads, scannedPages, staleDiscards, activeSessions, prefetchDropped, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		fetchDuration:   fetchDuration,
		hydrateDuration: hydrateDuration,
		pagerLoads:      pagerLoads,
		scannedPages:    scannedPages,
		staleDiscards:   staleDiscards,
		activeSessions:  activeSessions,
		prefetchDropped: prefetchDropped,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveRemoteFetch records one remote page fetch.
func (m *MetricsService) ObserveRemoteFetch(err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetchDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveHydration records one hydration batch.
func (m *MetricsService) ObserveHydration(duration time.Duration) {
	if m == nil {
		return
	}
	m.hydrateDuration.Observe(duration.Seconds())
}

// RecordLoad records the outcome of one scan-ahead load and the pages it scanned.
func (m *MetricsService) RecordLoad(outcome string, pages int) {
	if m == nil {
		return
	}
	m.pagerLoads.WithLabelValues(outcome).Inc()
	m.scannedPages.Observe(float64(pages))
	if outcome == OutcomeStale {
		m.staleDiscards.Inc()
	}
}

// SetActiveSessions publishes the size of the session registry.
func (m *MetricsService) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// RecordPrefetchDropped counts a prefetch job the queue refused.
func (m *MetricsService) RecordPrefetchDropped() {
	if m == nil {
		return
	}
	m.prefetchDropped.Inc()
}
