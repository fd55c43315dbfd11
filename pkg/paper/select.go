package paper

import (
	"fmt"

	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/geom"
)

// Request describes what a page is needed for. It is one of [ModelSpace]
// or [PaperSpace].
type Request interface {
	isRequest()
}

// ModelSpace requests a page for the model-space layout.
type ModelSpace struct {
	Bounds geom.Bounds3D
}

// PaperSpace requests a page for a paper-space layout.
type PaperSpace struct {
	PlotArea      geom.Bounds2D
	UseLayoutInfo bool
	Units         drawing.Units
}

func (ModelSpace) isRequest() {}
func (PaperSpace) isRequest() {}

// Source records which rule produced a selection.
type Source int

const (
	SourceNone Source = iota
	SourceAspectRatio
	SourceLayoutInfo
)

func (s Source) String() string {
	switch s {
	case SourceAspectRatio:
		return "aspect-ratio"
	case SourceLayoutInfo:
		return "layout-information"
	default:
		return "none"
	}
}

// Selection is the outcome of [Selector.Select]. When Empty is set the
// layout has nothing to plot and Page is the zero value.
type Selection struct {
	Empty  bool
	Page   PageDescriptor
	Margin float64 // inches
	Source Source
}

// Selector chooses pages. The zero value uses [DefaultCatalog] and no
// margin; [NewSelector] returns the usual defaults.
type Selector struct {
	Catalog       Catalog
	DefaultMargin float64 // inches, applied by the aspect-ratio rule
}

// NewSelector returns a selector with the default catalog and margin.
func NewSelector() Selector {
	return Selector{Catalog: DefaultCatalog(), DefaultMargin: DefaultMargin}
}

// Select decides the page for req.
//
// Model space always uses the aspect-ratio rule. Paper space with layout
// information in millimetres or inches gets a page of exactly the plot
// area's size and no margin; every other paper-space case, pixels
// included, falls back to the aspect-ratio rule. Uninitialized bounds or
// plot areas produce an empty selection.
func (s Selector) Select(req Request) Selection {
	switch r := req.(type) {
	case ModelSpace:
		if !r.Bounds.Initialized() {
			return Selection{Empty: true}
		}
		d := r.Bounds.Delta()
		return s.byAspect(d.X, d.Y)

	case PaperSpace:
		if !r.PlotArea.Initialized() {
			return Selection{Empty: true}
		}
		d := r.PlotArea.Delta()
		// A declared rectangle without area cannot size a page. Without
		// layout information a single zero axis still has an aspect.
		if d.X <= 0 && d.Y <= 0 || r.UseLayoutInfo && physical(r.Units) && (d.X <= 0 || d.Y <= 0) {
			return Selection{Empty: true}
		}
		if r.UseLayoutInfo {
			switch r.Units {
			case drawing.Millimeters:
				return exact(d.X/MillimetersPerInch*UnitsPerInch, d.Y/MillimetersPerInch*UnitsPerInch)
			case drawing.Inches:
				return exact(d.X*UnitsPerInch, d.Y*UnitsPerInch)
			case drawing.Pixels, drawing.UnitsUnspecified:
				// no physical size
			}
		}
		return s.byAspect(d.X, d.Y)

	default:
		panic(fmt.Sprintf("paper: unknown request type %T", req))
	}
}

func physical(u drawing.Units) bool {
	return u == drawing.Millimeters || u == drawing.Inches
}

// PickFor applies the aspect-ratio rule to an extent.
func (s Selector) PickFor(dx, dy float64) PageDescriptor {
	if dx > dy {
		return s.Catalog.Pick(Landscape)
	}
	return s.Catalog.Pick(Portrait)
}

func (s Selector) byAspect(dx, dy float64) Selection {
	return Selection{Page: s.PickFor(dx, dy), Margin: s.DefaultMargin, Source: SourceAspectRatio}
}

func exact(w, h float64) Selection {
	return Selection{Page: CustomPage(w, h), Source: SourceLayoutInfo}
}
