// Package metrics implements the observability hooks with Prometheus
// collectors registered on a private registry.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/findreq/pkg/observability"
)

const namespace = "findreq"

// Metrics satisfies [observability.ScanHooks], [observability.CacheHooks]
// and [observability.HTTPHooks].
type Metrics struct {
	registry *prometheus.Registry

	scansTotal      *prometheus.CounterVec
	scanDuration    prometheus.Histogram
	filesTotal      *prometheus.CounterVec
	namesTotal      *prometheus.CounterVec
	resolvedTotal   *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec

	cacheTotal    *prometheus.CounterVec
	cacheSetBytes *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
}

var (
	_ observability.ScanHooks  = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		// Labels: status (ok, error)
		scansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "total",
			Help:      "Completed scans by outcome",
		}, []string{"status"}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Wall time of a scan",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		// Labels: status (parsed, failed)
		filesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "files_total",
			Help:      "Source files visited by parse outcome",
		}, []string{"status"}),
		// Labels: category (built_in, local, third_party), rule
		namesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "names_total",
			Help:      "Classified import names by category and deciding rule",
		}, []string{"category", "rule"}),
		// Labels: source (cache, alias, metadata, registry, fallback)
		resolvedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "total",
			Help:      "Resolved third-party names by source",
		}, []string{"source"}),
		resolveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolve",
			Name:      "duration_seconds",
			Help:      "Time to resolve one name",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 2, 5},
		}, []string{"source"}),

		// Labels: key_type (http, resolution), result (hit, miss)
		cacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by key type and result",
		}, []string{"key_type", "result"}),
		cacheSetBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"key_type"}),

		// Labels: method, host, code
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Registry HTTP responses by method, host and status code",
		}, []string{"method", "host", "code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Registry HTTP round-trip latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"method", "host"}),
		httpErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Registry HTTP transport failures",
		}, []string{"method", "host"}),
	}
}

// Register installs m as the global scan, cache and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetScanHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) OnScanStart(context.Context, string) {}

func (m *Metrics) OnScanComplete(_ context.Context, _ string, _, _ int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.scansTotal.WithLabelValues(status).Inc()
	m.scanDuration.Observe(duration.Seconds())
}

func (m *Metrics) OnFileParsed(_ context.Context, ok bool) {
	status := "parsed"
	if !ok {
		status = "failed"
	}
	m.filesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) OnClassified(_ context.Context, category, rule string) {
	m.namesTotal.WithLabelValues(category, rule).Inc()
}

func (m *Metrics) OnResolved(_ context.Context, source string, duration time.Duration) {
	m.resolvedTotal.WithLabelValues(source).Inc()
	m.resolveDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheSetBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, host, _ string, statusCode int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, host, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, host).Observe(duration.Seconds())
}

func (m *Metrics) OnError(_ context.Context, method, host, _ string, _ error) {
	m.httpErrors.WithLabelValues(method, host).Inc()
}
