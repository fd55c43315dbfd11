// Package pkg provides the core libraries of cadpage, which turns CAD
// drawings into printable pages.
//
// # Overview
//
// A drawing has one model-space layout and any number of paper-space
// layouts. For every layout with something to plot, cadpage chooses a page
// (from a catalog of standard sizes or from the layout's declared plot
// area), computes the transform that places the geometry on it and renders
// the result.
//
// # Architecture
//
// The data flow through cadpage:
//
//	drawing.json
//	     ↓
//	[drawing] (load + validate)
//	     ↓
//	[bounds] (extents, block inserts expanded)
//	     ↓
//	[paper] (page selection) + [transform] (page mapping)
//	     ↓
//	[export] (one Page per layout, concurrently)
//	     ↓
//	[render/sink] (PDF, SVG, PNG, JSON)
//
// [pipeline] wraps these steps with caching ([cache]) and is shared by the
// CLI and the HTTP API ([server]).
//
// # Quick Start
//
//	d, err := drawing.Load("bracket.json")
//	if err != nil {
//	    return err
//	}
//	c := sink.NewCollector(sink.DefaultConfig(), sink.FormatPDF)
//	plan, err := export.New(logger).Export(ctx, d, export.Options{}, c)
//	for _, a := range c.Artifacts() {
//	    os.WriteFile(sink.FileName("bracket", a.Layout, len(plan.Pages) == 1, a.Format), a.Data, 0o644)
//	}
//
// # Main Packages
//
// [geom] - Points, vectors and immutable 2D/3D bounding boxes.
//
// [drawing] - The in-memory drawing model, its JSON format and sample
// drawings.
//
// [bounds] - Extents of entities, with block inserts expanded and cycles
// detected.
//
// [paper] - Page catalog and the rules that pick a page for a layout.
//
// [transform] - Fit and scale transforms from drawing space to page space.
//
// [export] - The export engine: plans and renders every layout.
//
// [render/sink] - Output formats.
//
// [pipeline] - Load, plan and render with artifact caching.
//
// [cache] - Null, file, Redis and MongoDB cache backends.
//
// [observability] - Hooks for logging and Prometheus metrics.
//
// [config] - The TOML configuration file.
//
// [server] - The HTTP API served by `cadpage serve`.
//
// [errors] - Error codes shared by the CLI and the API.
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/geom
// [drawing]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/drawing
// [bounds]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/bounds
// [paper]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/paper
// [transform]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/transform
// [export]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/export
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/observability
// [config]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/config
// [server]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/server
// [errors]: https://pkg.go.dev/github.com/matzehuels/cadpage/pkg/errors
package pkg
