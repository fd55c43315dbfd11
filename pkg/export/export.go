package export

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/cadpage/pkg/bounds"
	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/observability"
	"github.com/matzehuels/cadpage/pkg/paper"
	"github.com/matzehuels/cadpage/pkg/transform"
)

// Renderer draws planned pages. Implementations used with
// [Exporter.ExportConcurrent] must be safe for concurrent use.
type Renderer interface {
	DrawPage(p Page) error
}

// RendererFunc adapts a function to [Renderer].
type RendererFunc func(p Page) error

func (f RendererFunc) DrawPage(p Page) error { return f(p) }

// Options restricts an export.
type Options struct {
	// Layout limits the export to one layout. Empty means all.
	Layout string
	// View names a model-space view. Empty means fit the model bounds.
	View string
}

// Page is one planned output page.
type Page struct {
	// Index is the layout's position in model-first, tab order.
	Index   int
	Drawing *drawing.Drawing
	Layout  *drawing.Layout
	View    *drawing.View
	Paper   paper.Selection
	// Transform maps drawing coordinates to page units and carries the
	// scale factor and fit mode.
	Transform transform.Result
}

// Entities returns the entities drawn on the page.
func (p Page) Entities() []drawing.Entity {
	if p.Layout.IsModel() {
		return p.Drawing.Entities
	}
	return p.Layout.Entities
}

// Failure records a layout that could not be exported.
type Failure struct {
	Layout string
	Err    error
}

func (f Failure) Error() string { return fmt.Sprintf("layout %q: %v", f.Layout, f.Err) }
func (f Failure) Unwrap() error { return f.Err }

// Plan is the outcome of planning a drawing.
type Plan struct {
	Drawing string
	Pages   []Page
	// Skipped lists layouts with nothing to plot.
	Skipped []string
	Failed  []Failure
}

// Report is the outcome of an export.
type Report = Plan

// =============================================================================
// Exporter
// =============================================================================

// Exporter ties the engine components together. The zero value uses the
// default catalog, a discard logger and the globally registered hooks.
type Exporter struct {
	Bounds    bounds.Calculator
	Selector  paper.Selector
	Transform transform.Builder
	Logger    *log.Logger
	Hooks     observability.ExportHooks
}

// New returns an exporter with [paper.NewSelector] defaults.
func New(logger *log.Logger) *Exporter {
	return &Exporter{Selector: paper.NewSelector(), Logger: logger}
}

func (e *Exporter) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}

func (e *Exporter) hooks() observability.ExportHooks {
	if e.Hooks != nil {
		return e.Hooks
	}
	return observability.Export()
}

// target is a layout to process together with its export position.
type target struct {
	index  int
	layout *drawing.Layout
}

// targets resolves opts against d.
func (e *Exporter) targets(d *drawing.Drawing, opts Options) ([]target, *drawing.View, error) {
	if d == nil {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "drawing is nil")
	}
	var view *drawing.View
	if opts.View != "" {
		v, ok := d.View(opts.View)
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeViewNotFound, "view %q not found in %q", opts.View, d.Name)
		}
		view = v
	}

	ordered := d.OrderedLayouts()
	if opts.Layout == "" {
		out := make([]target, len(ordered))
		for i, l := range ordered {
			out[i] = target{index: i, layout: l}
		}
		return out, view, nil
	}
	for i, l := range ordered {
		if l.Name == opts.Layout {
			return []target{{index: i, layout: l}}, view, nil
		}
	}
	return nil, nil, errors.New(errors.ErrCodeLayoutNotFound, "layout %q not found in %q", opts.Layout, d.Name)
}

// planLayout plans one layout. ok is false when there is nothing to plot.
func (e *Exporter) planLayout(d *drawing.Drawing, t target, view *drawing.View) (Page, bool, error) {
	l := t.layout
	page := Page{Index: t.index, Drawing: d, Layout: l}

	if l.IsModel() {
		b, err := e.Bounds.Drawing(d)
		if err != nil {
			return page, false, err
		}
		page.Paper = e.Selector.Select(paper.ModelSpace{Bounds: b})
		if page.Paper.Empty {
			return page, false, nil
		}
		if view != nil {
			page.View = view
			page.Transform, err = e.Transform.ViewFit(view, page.Paper.Page, page.Paper.Margin)
		} else {
			page.Transform, err = e.Transform.BoundsFit(b, page.Paper.Page, page.Paper.Margin)
		}
		if err != nil {
			return page, false, err
		}
	} else {
		area, err := e.Bounds.PlotArea(d, l)
		if err != nil {
			return page, false, err
		}
		page.Paper = e.Selector.Select(paper.PaperSpace{
			PlotArea:      area,
			UseLayoutInfo: l.UseLayoutInfo(),
			Units:         l.PlotUnits,
		})
		if page.Paper.Empty {
			return page, false, nil
		}
		page.Transform, err = e.Transform.BoundsFit(area.To3D(), page.Paper.Page, page.Paper.Margin)
		if err != nil {
			return page, false, err
		}
	}

	return page, true, nil
}

// outcome is the per-layout result shared by the sequential and concurrent
// paths. done is false for layouts that never ran.
type outcome struct {
	page    Page
	skipped bool
	err     error
	done    bool
}

func (e *Exporter) run(ctx context.Context, d *drawing.Drawing, t target, view *drawing.View, r Renderer) outcome {
	l := t.layout
	hooks := e.hooks()
	logger := e.logger()
	hooks.OnLayoutStart(ctx, l.Name, l.Kind.String())
	start := time.Now()

	page, ok, err := e.planLayout(d, t, view)
	if err == nil && !ok {
		logger.Debug("skipped empty layout", "layout", l.Name)
		hooks.OnLayoutSkipped(ctx, l.Name)
		return outcome{skipped: true}
	}
	if err == nil && r != nil {
		if rerr := r.DrawPage(page); rerr != nil {
			err = errors.Wrap(errors.ErrCodeInternal, rerr, "render layout %q", l.Name)
		}
	}
	elapsed := time.Since(start)
	hooks.OnLayoutComplete(ctx, l.Name, page.Transform.Mode.String(), elapsed, err)
	if err != nil {
		logger.Warn("layout failed", "layout", l.Name, "error", err)
		return outcome{err: err}
	}
	logger.Info("planned layout",
		"layout", l.Name,
		"paper", page.Paper.Page.Name,
		"mode", page.Transform.Mode,
		"scale", page.Transform.ScaleFactor,
		"duration", elapsed,
	)
	return outcome{page: page}
}

func collect(d *drawing.Drawing, targets []target, results []outcome) (Plan, error) {
	p := Plan{Drawing: d.Name}
	var errs []error
	for i, o := range results {
		switch {
		case o.skipped:
			p.Skipped = append(p.Skipped, targets[i].layout.Name)
		case o.err != nil:
			f := Failure{Layout: targets[i].layout.Name, Err: o.err}
			p.Failed = append(p.Failed, f)
			errs = append(errs, f)
		default:
			p.Pages = append(p.Pages, o.page)
		}
	}
	return p, stderrors.Join(errs...)
}

// Plan decides page and transform for every layout without drawing.
func (e *Exporter) Plan(ctx context.Context, d *drawing.Drawing, opts Options) (Plan, error) {
	return e.export(ctx, d, opts, nil)
}

// Export plans every layout and passes each non-empty page to r, in order.
// The context is checked between layouts.
func (e *Exporter) Export(ctx context.Context, d *drawing.Drawing, opts Options, r Renderer) (Report, error) {
	if r == nil {
		return Report{}, errors.New(errors.ErrCodeInvalidInput, "renderer is nil")
	}
	return e.export(ctx, d, opts, r)
}

func (e *Exporter) export(ctx context.Context, d *drawing.Drawing, opts Options, r Renderer) (Plan, error) {
	targets, view, err := e.targets(d, opts)
	if err != nil {
		return Plan{}, err
	}
	results := make([]outcome, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			p, _ := collect(d, targets[:len(results)], results)
			return p, err
		}
		results = append(results, e.run(ctx, d, t, view, r))
	}
	return collect(d, targets, results)
}

// ExportConcurrent is [Exporter.Export] with up to workers layouts in
// flight. Pages are reported in the same order as Export reports them.
// workers < 1 means one worker.
func (e *Exporter) ExportConcurrent(ctx context.Context, d *drawing.Drawing, opts Options, r Renderer, workers int) (Report, error) {
	if r == nil {
		return Report{}, errors.New(errors.ErrCodeInvalidInput, "renderer is nil")
	}
	targets, view, err := e.targets(d, opts)
	if err != nil {
		return Report{}, err
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]outcome, len(targets))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.run(ctx, d, t, view, r)
			results[i].done = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Report the layouts that finished before cancellation, as the
		// sequential path does.
		var ranT []target
		var ranR []outcome
		for i, o := range results {
			if o.done {
				ranT = append(ranT, targets[i])
				ranR = append(ranR, o)
			}
		}
		p, _ := collect(d, ranT, ranR)
		return p, err
	}
	return collect(d, targets, results)
}
