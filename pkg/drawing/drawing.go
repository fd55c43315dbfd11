package drawing

import (
	"fmt"
	"sort"

	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/geom"
)

// ModelLayoutName is the name of the synthesised model-space layout.
const ModelLayoutName = "Model"

// =============================================================================
// Layout variants
// =============================================================================

// Kind distinguishes the infinite model-space canvas from paper-space sheets.
type Kind int

const (
	ModelSpace Kind = iota
	PaperSpace
)

func (k Kind) String() string {
	switch k {
	case ModelSpace:
		return "model"
	case PaperSpace:
		return "paper"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Units is the physical unit a paper-space plot area is declared in.
type Units int

const (
	UnitsUnspecified Units = iota
	Millimeters
	Inches
	Pixels
)

func (u Units) String() string {
	switch u {
	case UnitsUnspecified:
		return "unspecified"
	case Millimeters:
		return "millimeters"
	case Inches:
		return "inches"
	case Pixels:
		return "pixels"
	default:
		return fmt.Sprintf("Units(%d)", int(u))
	}
}

// PlotArea says where a paper-space layout takes its printable region from.
type PlotArea int

const (
	// PlotLayoutInformation uses the declared plot rectangle and units as the
	// exact printable extent.
	PlotLayoutInformation PlotArea = iota
	// PlotExtents fits whatever the layout's entities cover.
	PlotExtents
	// PlotDisplay uses the declared rectangle as a display window, fitted to
	// a standard page.
	PlotDisplay
)

func (p PlotArea) String() string {
	switch p {
	case PlotLayoutInformation:
		return "layout_information"
	case PlotExtents:
		return "extents"
	case PlotDisplay:
		return "display"
	default:
		return fmt.Sprintf("PlotArea(%d)", int(p))
	}
}

// =============================================================================
// Drawing
// =============================================================================

// Drawing is an in-memory CAD drawing. It is treated as read-only once
// loaded; the export engine never modifies it.
type Drawing struct {
	Name string

	// Entities holds the model-space geometry.
	Entities []Entity

	// Blocks are reusable entity groups referenced by [Insert].
	Blocks map[string]*Block

	// Layouts in file order. Exactly one has Kind ModelSpace.
	Layouts []*Layout

	// Views are named model-space windows.
	Views []View
}

// Layout is a named sheet onto the drawing.
type Layout struct {
	Name     string
	TabOrder int
	Kind     Kind

	// PlotRect is the declared plot-area rectangle. It is uninitialized when
	// the layout declares none.
	PlotRect  geom.Bounds2D
	PlotUnits Units
	PlotArea  PlotArea

	// Entities holds the paper-space geometry (title block, viewports'
	// frames). Always empty for model space.
	Entities []Entity
}

// IsModel reports whether l is the model-space layout.
func (l *Layout) IsModel() bool { return l.Kind == ModelSpace }

// UseLayoutInfo reports whether the plot area should be read from the
// declared rectangle and units rather than fitted to a standard page.
func (l *Layout) UseLayoutInfo() bool {
	return l.Kind == PaperSpace && l.PlotArea == PlotLayoutInformation
}

// Block is a named group of entities placed by [Insert] references.
type Block struct {
	Name     string
	Base     geom.Point3D
	Entities []Entity
}

// New returns an empty drawing with a model-space layout.
func New(name string) *Drawing {
	return &Drawing{
		Name:    name,
		Blocks:  map[string]*Block{},
		Layouts: []*Layout{{Name: ModelLayoutName, Kind: ModelSpace}},
	}
}

// ModelLayout returns the model-space layout.
func (d *Drawing) ModelLayout() *Layout {
	for _, l := range d.Layouts {
		if l.Kind == ModelSpace {
			return l
		}
	}
	return nil
}

// Layout looks up a layout by name.
func (d *Drawing) Layout(name string) (*Layout, bool) {
	for _, l := range d.Layouts {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// View looks up a named view.
func (d *Drawing) View(name string) (*View, bool) {
	for i := range d.Views {
		if d.Views[i].Name == name {
			return &d.Views[i], true
		}
	}
	return nil, false
}

// Block looks up a block definition by name.
func (d *Drawing) Block(name string) (*Block, bool) {
	b, ok := d.Blocks[name]
	return b, ok
}

// OrderedLayouts returns the layouts in export order: model space first,
// then paper-space layouts by tab order. Layouts sharing a tab order keep
// their file order. The returned slice is a fresh copy.
func (d *Drawing) OrderedLayouts() []*Layout {
	out := make([]*Layout, 0, len(d.Layouts))
	var paper []*Layout
	for _, l := range d.Layouts {
		if l.Kind == ModelSpace {
			out = append(out, l)
		} else {
			paper = append(paper, l)
		}
	}
	sort.SliceStable(paper, func(i, j int) bool {
		return paper[i].TabOrder < paper[j].TabOrder
	})
	return append(out, paper...)
}

// AddLayout appends a paper-space layout and returns it.
func (d *Drawing) AddLayout(l *Layout) *Layout {
	d.Layouts = append(d.Layouts, l)
	return l
}

// AddBlock registers a block definition, replacing any previous one with
// the same name.
func (d *Drawing) AddBlock(b *Block) {
	if d.Blocks == nil {
		d.Blocks = map[string]*Block{}
	}
	d.Blocks[b.Name] = b
}

// Validate checks the structural rules every drawing must satisfy:
// exactly one model layout, unique non-empty layout and view names, and
// model-space layouts without entities of their own.
func (d *Drawing) Validate() error {
	if d == nil {
		return errors.New(errors.ErrCodeInvalidInput, "drawing is nil")
	}
	models := 0
	names := make(map[string]bool, len(d.Layouts))
	for i, l := range d.Layouts {
		if l == nil {
			return errors.New(errors.ErrCodeInvalidDrawing, "layout %d is nil", i)
		}
		if l.Name == "" {
			return errors.New(errors.ErrCodeInvalidDrawing, "layout %d has no name", i)
		}
		if names[l.Name] {
			return errors.New(errors.ErrCodeInvalidDrawing, "duplicate layout name %q", l.Name)
		}
		names[l.Name] = true
		if l.Kind == ModelSpace {
			models++
			if len(l.Entities) > 0 {
				return errors.New(errors.ErrCodeInvalidDrawing, "model layout %q carries paper-space entities", l.Name)
			}
		}
	}
	if models != 1 {
		return errors.New(errors.ErrCodeInvalidDrawing, "drawing must have exactly one model layout, found %d", models)
	}
	views := make(map[string]bool, len(d.Views))
	for _, v := range d.Views {
		if v.Name == "" {
			return errors.New(errors.ErrCodeInvalidDrawing, "view without name")
		}
		if views[v.Name] {
			return errors.New(errors.ErrCodeInvalidDrawing, "duplicate view name %q", v.Name)
		}
		views[v.Name] = true
	}
	return nil
}

// Stats summarises a drawing for display.
type Stats struct {
	ModelEntities int
	PaperEntities int
	Blocks        int
	Layouts       int
	Views         int
	ByType        map[EntityType]int
}

// Stats counts entities by type across model and paper space. Block
// contents are counted once, not per insert.
func (d *Drawing) Stats() Stats {
	s := Stats{
		ModelEntities: len(d.Entities),
		Blocks:        len(d.Blocks),
		Layouts:       len(d.Layouts),
		Views:         len(d.Views),
		ByType:        map[EntityType]int{},
	}
	for _, e := range d.Entities {
		s.ByType[e.Type()]++
	}
	for _, l := range d.Layouts {
		s.PaperEntities += len(l.Entities)
		for _, e := range l.Entities {
			s.ByType[e.Type()]++
		}
	}
	return s
}
