package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface on top of Prometheus collectors.
type Prometheus struct {
	layouts        *prometheus.CounterVec
	layoutDuration *prometheus.HistogramVec
	skipped        prometheus.Counter
	loads          *prometheus.CounterVec
	renders        *prometheus.CounterVec
	cache          *prometheus.CounterVec
	cacheBytes     prometheus.Counter
	requests       *prometheus.CounterVec
	reqDuration    *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadpage_layouts_total",
			Help: "Layouts exported, by mode and outcome",
		}, []string{"mode", "outcome"}),
		layoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cadpage_layout_duration_seconds",
			Help:    "Time spent planning and drawing one layout",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cadpage_layouts_skipped_total",
			Help: "Layouts skipped because nothing was plotted",
		}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadpage_drawing_loads_total",
			Help: "Drawings loaded, by outcome",
		}, []string{"outcome"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadpage_renders_total",
			Help: "Render runs, by outcome",
		}, []string{"outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadpage_cache_operations_total",
			Help: "Cache lookups and writes, by key type and result",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cadpage_cache_written_bytes_total",
			Help: "Bytes written to the cache",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cadpage_http_requests_total",
			Help: "HTTP requests served, by route and status",
		}, []string{"method", "route", "status"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cadpage_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	if reg != nil {
		reg.MustRegister(p.Collectors()...)
	}
	return p
}

// Collectors returns all collectors owned by p.
func (p *Prometheus) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		p.layouts, p.layoutDuration, p.skipped,
		p.loads, p.renders,
		p.cache, p.cacheBytes,
		p.requests, p.reqDuration,
	}
}

// Install registers p for every hook category.
func (p *Prometheus) Install() {
	SetExportHooks(p)
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnLayoutStart(context.Context, string, string) {}

func (p *Prometheus) OnLayoutComplete(_ context.Context, _ string, mode string, d time.Duration, err error) {
	p.layouts.WithLabelValues(mode, outcome(err)).Inc()
	p.layoutDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *Prometheus) OnLayoutSkipped(context.Context, string) { p.skipped.Inc() }

func (p *Prometheus) OnLoadStart(context.Context, string) {}

func (p *Prometheus) OnLoadComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	p.loads.WithLabelValues(outcome(err)).Inc()
}

func (p *Prometheus) OnRenderStart(context.Context, []string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	p.renders.WithLabelValues(outcome(err)).Inc()
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cache.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cache.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cache.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.reqDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ ExportHooks   = (*Prometheus)(nil)
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
