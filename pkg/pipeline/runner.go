package pipeline

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cadpage/pkg/cache"
	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/export"
	"github.com/matzehuels/cadpage/pkg/observability"
	"github.com/matzehuels/cadpage/pkg/render/sink"
)

// Runner executes the export pipeline with caching.
// A Runner is safe for concurrent use if its Cache is.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the lifetime of cached plans and artifacts when set.
	TTL time.Duration
}

// NewRunner creates a new pipeline runner.
// A nil cache disables caching, a nil keyer uses [cache.DefaultKeyer] and a
// nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete pipeline: load → plan → render.
//
// Pages whose artifacts are all cached are not rendered again. When single
// layouts fail, Execute returns the result for the others together with the
// joined layout errors; any other error yields a nil result.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	start := time.Now()
	d, hash, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Drawing = d
	result.DrawingHash = hash
	result.Stats.LoadTime = time.Since(start)
	r.Logger.Info("loaded drawing",
		"drawing", d.Name,
		"layouts", len(d.Layouts),
		"duration", result.Stats.LoadTime)

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start = time.Now()

	cr := &cachingRenderer{
		ctx:    ctx,
		runner: r,
		opts:   &opts,
		hash:   hash,
		inner:  sink.NewCollector(opts.SinkConfig(), opts.PageFormats()...),
	}
	plan, err := r.exporter(&opts).ExportConcurrent(ctx, d, opts.ExportOptions(), cr, opts.Workers)
	result.Stats.ExportTime = time.Since(start)
	hooks.OnRenderComplete(ctx, opts.Formats, result.Stats.ExportTime, err)
	if isFatal(ctx, plan, err) {
		return nil, err
	}

	result.Plan = plan
	result.Artifacts = cr.finish()
	if opts.CombinesPDF() && len(plan.Pages) > 0 {
		doc, hit, err := r.document(ctx, &opts, hash, plan.Pages)
		if err != nil {
			return nil, err
		}
		if hit {
			cr.hits++
		} else {
			cr.misses++
		}
		result.Artifacts = append(result.Artifacts, doc)
	}
	result.Stats.Pages = len(plan.Pages)
	result.Stats.Skipped = len(plan.Skipped)
	result.Stats.Failed = len(plan.Failed)
	result.CacheInfo.ArtifactHits = cr.hits
	result.CacheInfo.ArtifactMisses = cr.misses

	r.Logger.Info("exported drawing",
		"pages", result.Stats.Pages,
		"artifacts", len(result.Artifacts),
		"cached", cr.hits,
		"duration", result.Stats.ExportTime)
	return result, err
}

// Load reads the drawing named by opts and returns it together with the
// hash of its canonical encoding. Equal drawings hash equally regardless of
// the whitespace or key order of their source files.
func (r *Runner) Load(ctx context.Context, opts Options) (*drawing.Drawing, string, error) {
	source := opts.Input
	if len(opts.Drawing) > 0 {
		source = "request"
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	var (
		d   *drawing.Drawing
		err error
	)
	if len(opts.Drawing) > 0 {
		d, err = drawing.Read(bytes.NewReader(opts.Drawing))
	} else {
		d, err = drawing.Load(opts.Input)
	}
	if err != nil {
		hooks.OnLoadComplete(ctx, source, 0, time.Since(start), err)
		return nil, "", err
	}
	hash, err := Hash(d)
	if err != nil {
		hooks.OnLoadComplete(ctx, source, 0, time.Since(start), err)
		return nil, "", err
	}
	st := d.Stats()
	hooks.OnLoadComplete(ctx, source, st.ModelEntities+st.PaperEntities, time.Since(start), nil)
	return d, hash, nil
}

// Hash returns the content hash of a drawing's canonical JSON encoding.
func Hash(d *drawing.Drawing) (string, error) {
	var buf bytes.Buffer
	if err := drawing.Write(&buf, d); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode drawing")
	}
	return cache.Hash(buf.Bytes()), nil
}

// PlanWithCacheInfo plans every layout and returns the page summary and
// whether it came from the cache. Per-layout failures are reported in
// [export.Summary.Failed], not as an error.
func (r *Runner) PlanWithCacheInfo(ctx context.Context, opts Options) (export.Summary, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return export.Summary{}, false, err
	}
	d, hash, err := r.Load(ctx, opts)
	if err != nil {
		return export.Summary{}, false, err
	}

	key := r.Keyer.PlanKey(hash, opts.PlanKeyOpts())
	if !opts.Refresh {
		if data, ok := r.get(ctx, key, cache.KeyTypePlan); ok {
			var s export.Summary
			if err := json.Unmarshal(data, &s); err == nil {
				return s, true, nil
			}
			// Fall through and recompute a corrupt entry.
		}
	}

	start := time.Now()
	plan, err := r.exporter(&opts).Plan(ctx, d, opts.ExportOptions())
	if isFatal(ctx, plan, err) {
		return export.Summary{}, false, err
	}
	s := plan.Summary()
	r.Logger.Debug("planned drawing", "pages", len(s.Pages), "duration", time.Since(start))

	if data, err := json.Marshal(s); err == nil {
		r.set(ctx, key, cache.KeyTypePlan, data, cache.TTLPlan)
	}
	return s, false, nil
}

// Plan is a convenience wrapper that calls PlanWithCacheInfo and discards the cache hit info.
func (r *Runner) Plan(ctx context.Context, opts Options) (export.Summary, error) {
	s, _, err := r.PlanWithCacheInfo(ctx, opts)
	return s, err
}

// Preview renders the model space of d into a PNG of the given size and
// caches the image.
func (r *Runner) Preview(ctx context.Context, d *drawing.Drawing, width, height int) ([]byte, bool, error) {
	if d == nil {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "drawing is nil")
	}
	hash, err := Hash(d)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.PreviewKey(hash, width, height)
	if data, ok := r.get(ctx, key, cache.KeyTypePreview); ok {
		return data, true, nil
	}
	data, err := sink.RenderImage(d, width, height, sink.DefaultImagePadding)
	if err != nil {
		return nil, false, err
	}
	r.set(ctx, key, cache.KeyTypePreview, data, cache.TTLPreview)
	return data, false, nil
}

// document returns the multi-page PDF of pages, from the cache when
// possible. The empty layout name in its key stands for the whole drawing.
func (r *Runner) document(ctx context.Context, opts *Options, hash string, pages []export.Page) (sink.Artifact, bool, error) {
	a := sink.Artifact{Index: len(pages), Format: sink.FormatPDF, Document: true}
	key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts("", sink.FormatPDF))
	if !opts.Refresh {
		if data, ok := r.get(ctx, key, cache.KeyTypeArtifact); ok {
			a.Data = data
			return a, true, nil
		}
	}
	var buf bytes.Buffer
	if err := sink.WritePDFDocument(&buf, pages, opts.SinkConfig()); err != nil {
		return a, false, err
	}
	r.set(ctx, key, cache.KeyTypeArtifact, buf.Bytes(), cache.TTLArtifact)
	a.Data = buf.Bytes()
	return a, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (r *Runner) exporter(opts *Options) *export.Exporter {
	e := export.New(opts.Logger)
	e.Selector = opts.Selector()
	return e
}

// get reads a cache entry, treating backend errors as misses.
func (r *Runner) get(ctx context.Context, key, keyType string) ([]byte, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key_type", keyType, "error", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, keyType)
		return nil, false
	}
	hooks.OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if r.TTL > 0 && keyType != cache.KeyTypePreview {
		ttl = r.TTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key_type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// isFatal distinguishes errors that abort the run from per-layout failures,
// which leave a usable plan behind.
func isFatal(ctx context.Context, plan export.Plan, err error) bool {
	if err == nil {
		return false
	}
	return len(plan.Failed) == 0 || ctx.Err() != nil
}

// =============================================================================
// Caching renderer
// =============================================================================

// cachingRenderer serves pages whose artifacts are all cached and hands the
// rest to a sink.Collector. It is reentrant.
type cachingRenderer struct {
	ctx    context.Context
	runner *Runner
	opts   *Options
	hash   string
	inner  *sink.Collector

	mu     sync.Mutex
	cached []sink.Artifact
	hits   int
	misses int
}

func (c *cachingRenderer) DrawPage(p export.Page) error {
	formats := c.opts.PageFormats()
	if len(formats) == 0 {
		return nil
	}
	if !c.opts.Refresh {
		if found, ok := c.lookup(p, formats); ok {
			c.mu.Lock()
			c.cached = append(c.cached, found...)
			c.hits += len(found)
			c.mu.Unlock()
			return nil
		}
	}
	c.mu.Lock()
	c.misses += len(formats)
	c.mu.Unlock()
	return c.inner.DrawPage(p)
}

func (c *cachingRenderer) lookup(p export.Page, formats []sink.Format) ([]sink.Artifact, bool) {
	out := make([]sink.Artifact, 0, len(formats))
	for _, f := range formats {
		key := c.runner.Keyer.ArtifactKey(c.hash, c.opts.ArtifactKeyOpts(p.Layout.Name, f))
		data, ok := c.runner.get(c.ctx, key, cache.KeyTypeArtifact)
		if !ok {
			return nil, false
		}
		out = append(out, sink.Artifact{Index: p.Index, Layout: p.Layout.Name, Format: f, Data: data})
	}
	return out, true
}

// finish stores freshly rendered artifacts and returns all artifacts ordered
// by page and then by requested format.
func (c *cachingRenderer) finish() []sink.Artifact {
	rendered := c.inner.Artifacts()
	for _, a := range rendered {
		key := c.runner.Keyer.ArtifactKey(c.hash, c.opts.ArtifactKeyOpts(a.Layout, a.Format))
		c.runner.set(c.ctx, key, cache.KeyTypeArtifact, a.Data, cache.TTLArtifact)
	}

	out := append(slices.Clone(c.cached), rendered...)
	formats := c.opts.PageFormats()
	slices.SortStableFunc(out, func(a, b sink.Artifact) int {
		if n := cmp.Compare(a.Index, b.Index); n != 0 {
			return n
		}
		return cmp.Compare(slices.Index(formats, a.Format), slices.Index(formats, b.Format))
	})
	return out
}
