package sink

import (
	"image/color"
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/matzehuels/cadpage/pkg/bounds"
	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/export"
	"github.com/matzehuels/cadpage/pkg/geom"
	"github.com/matzehuels/cadpage/pkg/transform"
)

// Scene is a page flattened into primitives, in page units with y up.
type Scene struct {
	Title  string
	Width  float64
	Height float64
	Paths  []Path
	Labels []Label
	Dots   []Dot
}

// Path is a stroked polyline.
type Path struct {
	Points []vec.Vec2
	Closed bool
	Color  color.RGBA
}

// Label is a single line of text anchored at its baseline start.
type Label struct {
	At    vec.Vec2
	Size  float64
	Angle float64 // degrees, counter-clockwise
	Value string
	Color color.RGBA
}

// Dot marks a point entity.
type Dot struct {
	At    vec.Vec2
	Color color.RGBA
}

// BuildScene flattens the entities of p through its page transform.
func BuildScene(p export.Page, cfg Config) (*Scene, error) {
	if p.Drawing == nil || p.Layout == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "page has no drawing or layout")
	}
	s := &Scene{
		Title:  p.Drawing.Name + " / " + p.Layout.Name,
		Width:  p.Paper.Page.Width,
		Height: p.Paper.Page.Height,
	}
	b := sceneBuilder{d: p.Drawing, cfg: cfg, out: s, budget: bounds.NewBudget(bounds.DefaultMaxVisits)}
	if err := b.walk(p.Entities(), p.Transform.Matrix, 0); err != nil {
		return nil, err
	}
	return s, nil
}

type sceneBuilder struct {
	d      *drawing.Drawing
	cfg    Config
	out    *Scene
	budget *bounds.Budget
}

func pt(m transform.Matrix4, p geom.Point3D) vec.Vec2 {
	return m.Apply(p).XY()
}

func (b *sceneBuilder) walk(entities []drawing.Entity, m transform.Matrix4, depth int) error {
	for _, e := range entities {
		if e == nil || e.Properties().Invisible {
			continue
		}
		if err := b.budget.Spend(); err != nil {
			return err
		}
		if err := b.entity(e, m, depth); err != nil {
			return err
		}
	}
	return nil
}

func (b *sceneBuilder) entity(e drawing.Entity, m transform.Matrix4, depth int) error {
	col := b.cfg.entityColor(e.Properties().Color)

	switch e := e.(type) {
	case *drawing.Line:
		b.out.Paths = append(b.out.Paths, Path{Points: []vec.Vec2{pt(m, e.Start), pt(m, e.End)}, Color: col})

	case *drawing.Polyline:
		if len(e.Points) == 0 {
			return nil
		}
		pts := make([]vec.Vec2, len(e.Points))
		for i, p := range e.Points {
			pts[i] = pt(m, p)
		}
		b.out.Paths = append(b.out.Paths, Path{Points: pts, Closed: e.Closed && len(pts) > 2, Color: col})

	case *drawing.Circle:
		if e.Radius <= 0 {
			return nil
		}
		path := b.arc(m, e.Center, e.Radius, 0, 360, col)
		path.Points = path.Points[:len(path.Points)-1]
		path.Closed = true
		b.out.Paths = append(b.out.Paths, path)

	case *drawing.Arc:
		if e.Radius <= 0 {
			return nil
		}
		b.out.Paths = append(b.out.Paths, b.arc(m, e.Center, e.Radius, e.StartAngle, e.Sweep(), col))

	case *drawing.Text:
		if !b.cfg.DrawText || e.Value == "" || e.Height <= 0 {
			return nil
		}
		sin, cos := math.Sincos(e.Rotation * math.Pi / 180)
		at := pt(m, e.Position)
		dir := pt(m, e.Position.Add(geom.Vector3D{X: cos, Y: sin})).Sub(at)
		up := pt(m, e.Position.Add(geom.Vector3D{X: -sin * e.Height, Y: cos * e.Height})).Sub(at)
		b.out.Labels = append(b.out.Labels, Label{
			At:    at,
			Size:  up.Length(),
			Angle: math.Atan2(dir.Y, dir.X) * 180 / math.Pi,
			Value: e.Value,
			Color: col,
		})

	case *drawing.Point:
		b.out.Dots = append(b.out.Dots, Dot{At: pt(m, e.Position), Color: col})

	case *drawing.Insert:
		if depth >= bounds.DefaultMaxDepth {
			return errors.Wrap(errors.ErrCodeStructural, bounds.ErrTooDeep, "insert of %q", e.Block)
		}
		blk, ok := b.d.Block(e.Block)
		if !ok {
			return errors.New(errors.ErrCodeInvalidDrawing, "insert references unknown block %q", e.Block)
		}
		sc := e.EffectiveScale()
		local := transform.Translation(e.Position.Sub(geom.Point3D{})).
			Mul(transform.RotationZ(e.Rotation)).
			Mul(transform.Scaling(sc.X, sc.Y, sc.Z)).
			Mul(transform.Translation(geom.Point3D{}.Sub(blk.Base)))
		return b.walk(blk.Entities, m.Mul(local), depth+1)
	}
	return nil
}

// arc tessellates a counter-clockwise arc in drawing space and maps every
// vertex, so non-uniform block scales turn circles into ellipses.
func (b *sceneBuilder) arc(m transform.Matrix4, c geom.Point3D, r, start, sweep float64, col color.RGBA) Path {
	n := int(math.Ceil(float64(b.cfg.arcSegments()) * sweep / 360))
	if n < 2 {
		n = 2
	}
	pts := make([]vec.Vec2, n+1)
	for i := 0; i <= n; i++ {
		a := (start + sweep*float64(i)/float64(n)) * math.Pi / 180
		sin, cos := math.Sincos(a)
		pts[i] = pt(m, geom.Pt(c.X+r*cos, c.Y+r*sin, c.Z))
	}
	return Path{Points: pts, Color: col}
}
