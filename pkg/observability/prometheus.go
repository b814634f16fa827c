package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pedigree"

// PrometheusHooks records family, cache and HTTP events as Prometheus metrics.
type PrometheusHooks struct {
	loads        *prometheus.HistogramVec
	unlinks      *prometheus.CounterVec
	unlinkedNode prometheus.Counter
	images       *prometheus.CounterVec
	cacheEvents  *prometheus.CounterVec
	cacheBytes   prometheus.Counter
	requests     *prometheus.HistogramVec
}

// NewPrometheusHooks creates the collectors and registers them with reg.
func NewPrometheusHooks(reg prometheus.Registerer) (*PrometheusHooks, error) {
	h := &PrometheusHooks{
		loads: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "family",
			Name:      "load_duration_seconds",
			Help:      "Time to read and parse a family.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		unlinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "family",
			Name:      "unlinks_total",
			Help:      "Patient unlink requests by result (changed, unchanged, error).",
		}, []string{"result"}),
		unlinkedNode: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "family",
			Name:      "unlinked_nodes_total",
			Help:      "Nodes whose patient link was removed.",
		}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "family",
			Name:      "images_total",
			Help:      "Images served by result (cached, rendered, error).",
		}, []string{"result"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache lookups and writes by key type and event (hit, miss, set).",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	for _, c := range []prometheus.Collector{
		h.loads, h.unlinks, h.unlinkedNode, h.images, h.cacheEvents, h.cacheBytes, h.requests,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *PrometheusHooks) OnLoad(_ context.Context, _ string, _ int, d time.Duration, err error) {
	h.loads.WithLabelValues(result(err, "ok")).Observe(d.Seconds())
}

func (h *PrometheusHooks) OnUnlink(_ context.Context, _, _ string, removed int, _ time.Duration, err error) {
	outcome := "unchanged"
	if removed > 0 {
		outcome = "changed"
		h.unlinkedNode.Add(float64(removed))
	}
	h.unlinks.WithLabelValues(result(err, outcome)).Inc()
}

func (h *PrometheusHooks) OnImage(_ context.Context, _ string, cached bool, _ time.Duration, err error) {
	outcome := "rendered"
	if cached {
		outcome = "cached"
	}
	h.images.WithLabelValues(result(err, outcome)).Inc()
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheEvents.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func result(err error, ok string) string {
	if err != nil {
		return "error"
	}
	return ok
}

var (
	_ FamilyHooks = (*PrometheusHooks)(nil)
	_ CacheHooks  = (*PrometheusHooks)(nil)
	_ HTTPHooks   = (*PrometheusHooks)(nil)
)
