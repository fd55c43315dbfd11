// Package pipeline provides the export pipeline shared by the CLI and the
// HTTP server.
//
// The pipeline loads a drawing, plans one page per non-empty layout and
// renders each page in the requested formats, caching artifacts and page
// plans along the way. Keeping it in one place means `cadpage export` and
// `POST /v1/export` produce byte-identical output.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a JSON drawing from a file or from raw bytes
//  2. Plan: choose a page and a transform for every layout (pkg/export)
//  3. Render: draw each page as PDF, SVG, PNG or JSON (pkg/render/sink)
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "bracket.json",
//	    Formats: []string{"pdf", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, a := range result.Artifacts {
//	    fmt.Println(a.Layout, a.Format, len(a.Data))
//	}
//
// Plan only:
//
//	summary, err := runner.Plan(ctx, pipeline.Options{Input: "bracket.json"})
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cadpage/pkg/cache"
	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/export"
	"github.com/matzehuels/cadpage/pkg/paper"
	"github.com/matzehuels/cadpage/pkg/render/sink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = string(sink.FormatPDF)

	// DefaultWorkers is the number of layouts exported in parallel.
	DefaultWorkers = 4

	// DefaultTheme is the colour preset used by the renderers.
	DefaultTheme = ThemeWhite

	// DefaultPNGScale maps one page unit (1/100 in) to one pixel.
	DefaultPNGScale = 1.0

	// MaxWorkers bounds the worker pool for API callers.
	MaxWorkers = 64
)

// Theme names accepted by [Options.Theme].
const (
	ThemeWhite = "white"
	ThemeBlack = "black"
)

// ValidThemes is the set of supported themes.
var ValidThemes = map[string]bool{
	ThemeWhite: true,
	ThemeBlack: true,
	"dark":     true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the export pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Drawing takes precedence over Input.
	Input   string `json:"input,omitempty"`
	Drawing []byte `json:"-"`

	// Plan options
	Layout string   `json:"layout,omitempty"`
	View   string   `json:"view,omitempty"`
	Paper  []string `json:"paper,omitempty"` // catalog entries, e.g. "A3" or "210x297mm"
	Margin *float64 `json:"margin,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Theme     string   `json:"theme,omitempty"`
	LineWidth float64  `json:"line_width,omitempty"`
	NoText    bool     `json:"no_text,omitempty"`
	PNGScale  float64  `json:"png_scale,omitempty"`
	// CombinePDF writes every page into one PDF document instead of one
	// PDF per layout. It has no effect when Layout is set.
	CombinePDF bool `json:"combine_pdf,omitempty"`

	// Execution options
	Workers int  `json:"workers,omitempty"`
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
	catalog   paper.Catalog
	formats   []sink.Format
}

// Result holds the output of a pipeline run.
type Result struct {
	Drawing     *drawing.Drawing
	DrawingHash string
	Plan        export.Plan
	Artifacts   []sink.Artifact
	Stats       Stats
	CacheInfo   CacheInfo
}

// Stats contains timing and count information from a pipeline run.
type Stats struct {
	LoadTime   time.Duration
	ExportTime time.Duration
	Pages      int
	Skipped    int
	Failed     int
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	ArtifactHits   int
	ArtifactMisses int
	PlanHit        bool
}

// AllCached reports whether every artifact came from the cache.
func (c CacheInfo) AllCached() bool {
	return c.ArtifactMisses == 0 && c.ArtifactHits > 0
}

// =============================================================================
// Validation
// =============================================================================

// ValidateTheme validates a theme name.
func ValidateTheme(theme string) error {
	if !ValidThemes[theme] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid theme %q (want white or black)", theme)
	}
	return nil
}

// ValidateAndSetDefaults validates every option and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if len(o.Drawing) == 0 && o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no drawing given")
	}
	if len(o.Drawing) == 0 {
		if err := errors.ValidatePath(o.Input); err != nil {
			return err
		}
	}
	if o.Layout != "" {
		if err := errors.ValidateLayoutName(o.Layout); err != nil {
			return err
		}
	}
	if o.View != "" {
		if err := errors.ValidateLayoutName(o.View); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "view")
		}
	}

	if len(o.Paper) > 0 {
		c, err := paper.ParseCatalog(o.Paper...)
		if err != nil {
			return err
		}
		o.catalog = c
	} else {
		o.catalog = paper.DefaultCatalog()
	}
	if o.Margin == nil {
		m := paper.DefaultMargin
		o.Margin = &m
	}
	if *o.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "margin %.3g must not be negative", *o.Margin)
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	formats, err := sink.ParseFormats(o.Formats)
	if err != nil {
		return err
	}
	o.formats = formats

	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if err := ValidateTheme(o.Theme); err != nil {
		return err
	}
	if o.LineWidth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "line width must not be negative")
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.PNGScale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "png scale must be positive")
	}

	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers > MaxWorkers {
		o.Workers = MaxWorkers
	}

	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}

	o.validated = true
	return nil
}

// =============================================================================
// Derived settings
// =============================================================================

// Catalog returns the parsed paper catalog. Valid after
// ValidateAndSetDefaults.
func (o *Options) Catalog() paper.Catalog { return o.catalog }

// OutputFormats returns the parsed formats in request order.
func (o *Options) OutputFormats() []sink.Format { return o.formats }

// CombinesPDF reports whether PDF output is one document for all layouts.
func (o *Options) CombinesPDF() bool {
	return o.CombinePDF && o.Layout == "" && slices.Contains(o.formats, sink.FormatPDF)
}

// PageFormats returns the formats rendered page by page: the output formats
// without PDF when PDF is combined.
func (o *Options) PageFormats() []sink.Format {
	if !o.CombinesPDF() {
		return o.formats
	}
	return slices.DeleteFunc(slices.Clone(o.formats), func(f sink.Format) bool { return f == sink.FormatPDF })
}

// Selector returns the paper selector for these options.
func (o *Options) Selector() paper.Selector {
	return paper.Selector{Catalog: o.catalog, DefaultMargin: *o.Margin}
}

// ExportOptions returns the layout and view restriction.
func (o *Options) ExportOptions() export.Options {
	return export.Options{Layout: o.Layout, View: o.View}
}

// SinkConfig returns a fresh renderer configuration.
func (o *Options) SinkConfig() sink.Config {
	opts := []sink.Option{sink.WithTheme(o.Theme), sink.WithPNGScale(o.PNGScale)}
	if o.LineWidth > 0 {
		opts = append(opts, sink.WithLineWidth(o.LineWidth))
	}
	if o.NoText {
		opts = append(opts, sink.WithoutText())
	}
	return sink.DefaultConfig(opts...)
}

// PlanKeyOpts returns cache key options for the page plan.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	return cache.PlanKeyOpts{
		Layout:  o.Layout,
		View:    o.View,
		Catalog: o.catalog.Names(),
		Margin:  *o.Margin,
	}
}

// ArtifactKeyOpts returns cache key options for one page in one format.
// layout is the page's layout, not the request's restriction.
func (o *Options) ArtifactKeyOpts(layout string, format sink.Format) cache.ArtifactKeyOpts {
	k := o.PlanKeyOpts()
	k.Layout = layout
	return cache.ArtifactKeyOpts{
		PlanKeyOpts: k,
		Format:      string(format),
		Theme:       o.Theme,
		LineWidth:   o.LineWidth,
		NoText:      o.NoText,
		Scale:       o.PNGScale,
	}
}
