package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the client's Prometheus metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	// Cache metrics
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheFetches       *prometheus.CounterVec
	CacheSharedReads   prometheus.Counter
	CacheInvalidations prometheus.Counter
	CacheDiscarded     prometheus.Counter

	// Gateway metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with all metrics registered under namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Reads served from a fresh cache entry",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Reads that found no entry or a stale one",
		}),
		CacheFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_fetches_total",
			Help:      "Fetches issued by the cache",
		}, []string{"resource", "status"}),
		CacheSharedReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_shared_reads_total",
			Help:      "Reads answered by a fetch shared with other readers of the same key",
		}),
		CacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidated_entries_total",
			Help:      "Entries marked stale by a mutation",
		}),
		CacheDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_discarded_responses_total",
			Help:      "Responses dropped because a newer request or a reset superseded them",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests sent to the memo server",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Round trip time of requests to the memo server",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		c.CacheHits,
		c.CacheMisses,
		c.CacheFetches,
		c.CacheSharedReads,
		c.CacheInvalidations,
		c.CacheDiscarded,
		c.HTTPRequests,
		c.HTTPDuration,
	)

	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records one request to the memo server.
func (c *Collector) RecordRequest(method, route, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
