package drawing

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"seehuhn.de/go/geom/vec"

	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/geom"
)

var kindFromString = map[string]Kind{
	"":      PaperSpace,
	"model": ModelSpace,
	"paper": PaperSpace,
}

var unitsFromString = map[string]Units{
	"":            UnitsUnspecified,
	"unspecified": UnitsUnspecified,
	"mm":          Millimeters,
	"millimeters": Millimeters,
	"in":          Inches,
	"inches":      Inches,
	"px":          Pixels,
	"pixels":      Pixels,
}

var plotAreaFromString = map[string]PlotArea{
	"":                   PlotLayoutInformation,
	"layout_information": PlotLayoutInformation,
	"extents":            PlotExtents,
	"display":            PlotDisplay,
}

// =============================================================================
// Wire format
// =============================================================================

type file struct {
	Name     string   `json:"name,omitempty"`
	Entities []entity `json:"entities,omitempty"`
	Blocks   []block  `json:"blocks,omitempty"`
	Layouts  []layout `json:"layouts,omitempty"`
	Views    []view   `json:"views,omitempty"`
}

type block struct {
	Name     string   `json:"name"`
	Base     point    `json:"base,omitempty"`
	Entities []entity `json:"entities"`
}

type layout struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind,omitempty"`
	TabOrder  int       `json:"tab_order,omitempty"`
	PlotArea  string    `json:"plot_area,omitempty"`
	PlotUnits string    `json:"plot_units,omitempty"`
	PlotRect  []float64 `json:"plot_rect,omitempty"`
	Entities  []entity  `json:"entities,omitempty"`
}

type view struct {
	Name   string  `json:"name"`
	Center point   `json:"center"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Twist  float64 `json:"twist,omitempty"`
}

// entity is the flat union of all entity fields, discriminated by Type.
type entity struct {
	Type       string  `json:"type"`
	Layer      string  `json:"layer,omitempty"`
	Color      string  `json:"color,omitempty"`
	Invisible  bool    `json:"invisible,omitempty"`
	Start      point   `json:"start,omitempty"`
	End        point   `json:"end,omitempty"`
	Points     []point `json:"points,omitempty"`
	Closed     bool    `json:"closed,omitempty"`
	Center     point   `json:"center,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	StartAngle float64 `json:"start_angle,omitempty"`
	EndAngle   float64 `json:"end_angle,omitempty"`
	Position   point   `json:"position,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Rotation   float64 `json:"rotation,omitempty"`
	Value      string  `json:"value,omitempty"`
	Block      string  `json:"block,omitempty"`
	Scale      point   `json:"scale,omitempty"`
}

// point is written as [x, y] or [x, y, z].
type point []float64

func (p point) toPoint() (geom.Point3D, error) {
	switch len(p) {
	case 0:
		return geom.Point3D{}, nil
	case 2:
		return geom.Pt2(p[0], p[1]), nil
	case 3:
		return geom.Pt(p[0], p[1], p[2]), nil
	default:
		return geom.Point3D{}, fmt.Errorf("point needs 2 or 3 coordinates, got %d", len(p))
	}
}

func fromPoint(p geom.Point3D) point {
	if p.Z == 0 {
		return point{p.X, p.Y}
	}
	return point{p.X, p.Y, p.Z}
}

// =============================================================================
// Decoding
// =============================================================================

// Read decodes a JSON drawing from r.
//
// The input is an object with optional "entities" (model space), "blocks",
// "layouts" and "views" arrays:
//
//	{
//	  "name": "bracket",
//	  "entities": [{"type": "line", "start": [0, 0], "end": [10, 5]}],
//	  "layouts": [{"name": "Sheet 1", "tab_order": 1,
//	               "plot_units": "mm", "plot_rect": [0, 0, 210, 297]}]
//	}
//
// A model-space layout is synthesised when the file declares none. Read
// validates the result with [Drawing.Validate]. Errors carry code
// INVALID_FORMAT for malformed JSON and INVALID_DRAWING for structural
// problems. Read does not close r.
func Read(r io.Reader) (*Drawing, error) {
	var data file
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode drawing")
	}

	d := &Drawing{Name: data.Name, Blocks: make(map[string]*Block, len(data.Blocks))}

	ents, err := decodeEntities(data.Entities)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDrawing, err, "model space")
	}
	d.Entities = ents

	for _, b := range data.Blocks {
		if b.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidDrawing, "block without name")
		}
		if _, dup := d.Blocks[b.Name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidDrawing, "duplicate block %q", b.Name)
		}
		base, err := b.Base.toPoint()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDrawing, err, "block %s base", b.Name)
		}
		ents, err := decodeEntities(b.Entities)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDrawing, err, "block %s", b.Name)
		}
		d.Blocks[b.Name] = &Block{Name: b.Name, Base: base, Entities: ents}
	}

	hasModel := false
	for _, l := range data.Layouts {
		dl, err := decodeLayout(l)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDrawing, err, "layout %s", l.Name)
		}
		hasModel = hasModel || dl.Kind == ModelSpace
		d.Layouts = append(d.Layouts, dl)
	}
	if !hasModel {
		d.Layouts = append([]*Layout{{Name: ModelLayoutName, Kind: ModelSpace}}, d.Layouts...)
	}

	for _, v := range data.Views {
		c, err := v.Center.toPoint()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDrawing, err, "view %s center", v.Name)
		}
		d.Views = append(d.Views, View{
			Name:   v.Name,
			Center: c.XY(),
			Width:  v.Width,
			Height: v.Height,
			Twist:  v.Twist,
		})
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Load reads a JSON drawing file at path.
//
// Load opens the file, decodes it using [Read], and closes the file. A
// missing file yields code FILE_NOT_FOUND.
func Load(path string) (*Drawing, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func decodeLayout(l layout) (*Layout, error) {
	kind, ok := kindFromString[l.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", l.Kind)
	}
	units, ok := unitsFromString[l.PlotUnits]
	if !ok {
		return nil, fmt.Errorf("unknown plot units %q", l.PlotUnits)
	}
	area, ok := plotAreaFromString[l.PlotArea]
	if !ok {
		return nil, fmt.Errorf("unknown plot area %q", l.PlotArea)
	}
	out := &Layout{
		Name:      l.Name,
		TabOrder:  l.TabOrder,
		Kind:      kind,
		PlotUnits: units,
		PlotArea:  area,
	}
	switch len(l.PlotRect) {
	case 0:
	case 4:
		out.PlotRect = geom.Bounds2DOf(
			vec.Vec2{X: l.PlotRect[0], Y: l.PlotRect[1]},
			vec.Vec2{X: l.PlotRect[2], Y: l.PlotRect[3]},
		)
	default:
		return nil, fmt.Errorf("plot_rect needs 4 numbers, got %d", len(l.PlotRect))
	}
	ents, err := decodeEntities(l.Entities)
	if err != nil {
		return nil, err
	}
	out.Entities = ents
	return out, nil
}

func decodeEntities(in []entity) ([]Entity, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Entity, 0, len(in))
	for i, e := range in {
		ent, err := decodeEntity(e)
		if err != nil {
			return nil, fmt.Errorf("entity %d (%s): %w", i, e.Type, err)
		}
		out = append(out, ent)
	}
	return out, nil
}

func decodeEntity(e entity) (Entity, error) {
	props := Props{Layer: e.Layer, Color: e.Color, Invisible: e.Invisible}
	var perr error
	pt := func(p point) geom.Point3D {
		v, err := p.toPoint()
		if err != nil && perr == nil {
			perr = err
		}
		return v
	}

	var ent Entity
	switch EntityType(e.Type) {
	case TypeLine:
		ent = &Line{Props: props, Start: pt(e.Start), End: pt(e.End)}
	case TypePolyline:
		pts := make([]geom.Point3D, len(e.Points))
		for i, p := range e.Points {
			pts[i] = pt(p)
		}
		ent = &Polyline{Props: props, Points: pts, Closed: e.Closed}
	case TypeCircle:
		ent = &Circle{Props: props, Center: pt(e.Center), Radius: e.Radius}
	case TypeArc:
		ent = &Arc{Props: props, Center: pt(e.Center), Radius: e.Radius, StartAngle: e.StartAngle, EndAngle: e.EndAngle}
	case TypeText:
		ent = &Text{Props: props, Position: pt(e.Position), Height: e.Height, Rotation: e.Rotation, Value: e.Value}
	case TypePoint:
		ent = &Point{Props: props, Position: pt(e.Position)}
	case TypeInsert:
		if e.Block == "" {
			return nil, fmt.Errorf("insert without block name")
		}
		scale := pt(e.Scale)
		ent = &Insert{
			Props:    props,
			Block:    e.Block,
			Position: pt(e.Position),
			Scale:    geom.Vector3D{X: scale.X, Y: scale.Y, Z: scale.Z},
			Rotation: e.Rotation,
		}
	default:
		return nil, fmt.Errorf("unknown entity type %q", e.Type)
	}
	if perr != nil {
		return nil, perr
	}
	if r, ok := ent.(*Circle); ok && r.Radius < 0 {
		return nil, fmt.Errorf("negative radius %g", r.Radius)
	}
	if r, ok := ent.(*Arc); ok && r.Radius < 0 {
		return nil, fmt.Errorf("negative radius %g", r.Radius)
	}
	return ent, nil
}

// =============================================================================
// Encoding
// =============================================================================

// Write encodes d as indented JSON. The output can be read back with
// [Read]. Blocks are written in name order so the output is stable.
func Write(w io.Writer, d *Drawing) error {
	out := file{
		Name:     d.Name,
		Entities: encodeEntities(d.Entities),
	}

	names := make([]string, 0, len(d.Blocks))
	for name := range d.Blocks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := d.Blocks[name]
		out.Blocks = append(out.Blocks, block{
			Name:     b.Name,
			Base:     fromPoint(b.Base),
			Entities: encodeEntities(b.Entities),
		})
	}

	for _, l := range d.Layouts {
		wl := layout{
			Name:     l.Name,
			Kind:     l.Kind.String(),
			TabOrder: l.TabOrder,
			Entities: encodeEntities(l.Entities),
		}
		if l.Kind == PaperSpace {
			wl.PlotArea = l.PlotArea.String()
			wl.PlotUnits = l.PlotUnits.String()
		}
		if l.PlotRect.Initialized() {
			r := l.PlotRect.Rect()
			wl.PlotRect = []float64{r.LLx, r.LLy, r.URx, r.URy}
		}
		out.Layouts = append(out.Layouts, wl)
	}

	for _, v := range d.Views {
		out.Views = append(out.Views, view{
			Name:   v.Name,
			Center: point{v.Center.X, v.Center.Y},
			Width:  v.Width,
			Height: v.Height,
			Twist:  v.Twist,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Save writes d to a JSON file at path.
// This is a convenience wrapper around [Write] for file-based output.
func Save(d *Drawing, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeEntities(in []Entity) []entity {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity, 0, len(in))
	for _, e := range in {
		p := e.Properties()
		we := entity{Type: string(e.Type()), Layer: p.Layer, Color: p.Color, Invisible: p.Invisible}
		switch v := e.(type) {
		case *Line:
			we.Start, we.End = fromPoint(v.Start), fromPoint(v.End)
		case *Polyline:
			for _, pt := range v.Points {
				we.Points = append(we.Points, fromPoint(pt))
			}
			we.Closed = v.Closed
		case *Circle:
			we.Center, we.Radius = fromPoint(v.Center), v.Radius
		case *Arc:
			we.Center, we.Radius = fromPoint(v.Center), v.Radius
			we.StartAngle, we.EndAngle = v.StartAngle, v.EndAngle
		case *Text:
			we.Position, we.Height, we.Rotation, we.Value = fromPoint(v.Position), v.Height, v.Rotation, v.Value
		case *Point:
			we.Position = fromPoint(v.Position)
		case *Insert:
			we.Block, we.Position, we.Rotation = v.Block, fromPoint(v.Position), v.Rotation
			if v.Scale != (geom.Vector3D{}) {
				we.Scale = point{v.Scale.X, v.Scale.Y, v.Scale.Z}
			}
		}
		out = append(out, we)
	}
	return out
}
