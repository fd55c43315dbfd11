// Package bounds computes the axis-aligned bounding volume of a drawing or
// of a sub-tree of its entities.
//
// Block references are expanded recursively with the insert's scale,
// rotation and translation applied. Invisible entities and entities without
// extent (points, zero-length lines, zero-radius circles, empty text) are
// skipped, so a drawing made only of those yields an uninitialized
// [geom.Bounds3D].
//
// Traversal is guarded against malformed block graphs: a block that
// references itself, directly or through other blocks, fails with
// [ErrCyclicBlock], and nesting deeper than [Calculator.MaxDepth] fails with
// [ErrTooDeep]. Blocks that are not cyclic can still multiply: a chain of
// blocks that each insert the next one twice doubles the work per level, so
// expansion also stops after [Calculator.MaxVisits] entities with
// [ErrTooManyEntities]. All three are reported with code STRUCTURAL_DRAWING.
//
// The drawing is only read. A Calculator holds no state between calls and
// can be shared by concurrent exports.
package bounds

import (
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/geom"
)

const (
	// DefaultMaxDepth bounds block nesting when Calculator.MaxDepth is zero.
	DefaultMaxDepth = 64

	// DefaultMaxVisits bounds the entities visited by one expansion when
	// Calculator.MaxVisits is zero.
	DefaultMaxVisits = 1_000_000
)

var (
	// ErrCyclicBlock is returned when a block is referenced while it is
	// already being expanded.
	ErrCyclicBlock = stderrors.New("cyclic block reference")

	// ErrTooDeep is returned when block nesting exceeds MaxDepth.
	ErrTooDeep = stderrors.New("block nesting too deep")

	// ErrTooManyEntities is returned when block expansion visits more
	// entities than MaxVisits.
	ErrTooManyEntities = stderrors.New("block expansion too large")
)

// Budget counts entity visits across one block expansion. It is not safe for
// concurrent use; each traversal gets its own.
type Budget struct {
	limit int
	used  int
}

// NewBudget returns a budget of limit visits. limit <= 0 means
// DefaultMaxVisits.
func NewBudget(limit int) *Budget {
	if limit <= 0 {
		limit = DefaultMaxVisits
	}
	return &Budget{limit: limit}
}

// Spend records one visit. It fails once the limit is exceeded.
func (b *Budget) Spend() error {
	b.used++
	if b.used > b.limit {
		return errors.Wrap(errors.ErrCodeStructural, fmt.Errorf("%w: more than %d entities", ErrTooManyEntities, b.limit), "expand blocks")
	}
	return nil
}

// Used returns the number of visits recorded.
func (b *Budget) Used() int { return b.used }

// Calculator computes bounds. The zero value is ready to use.
type Calculator struct {
	// MaxDepth limits block nesting. Zero means DefaultMaxDepth.
	MaxDepth int
	// MaxVisits limits the entities visited per call, counting every
	// expanded block copy. Zero means DefaultMaxVisits.
	MaxVisits int
}

// Drawing returns the bounds of all model-space entities of d.
func (c Calculator) Drawing(d *drawing.Drawing) (geom.Bounds3D, error) {
	if d == nil {
		return geom.Bounds3D{}, errors.New(errors.ErrCodeInvalidInput, "drawing is nil")
	}
	return c.Entities(d, d.Entities)
}

// Entities returns the bounds of the given entities, resolving block
// references against d.
func (c Calculator) Entities(d *drawing.Drawing, entities []drawing.Entity) (geom.Bounds3D, error) {
	w := walker{
		d:        d,
		maxDepth: c.maxDepth(),
		budget:   NewBudget(c.MaxVisits),
		active:   map[string]bool{},
	}
	return w.walk(entities, identity, 0)
}

// PlotArea returns the plot-area rectangle of a paper-space layout:
//   - layout information: the declared rectangle
//   - display: the declared rectangle, or the entity extents when none is
//     declared
//   - extents: the bounds of the layout's own entities
//
// The result is uninitialized when the layout has nothing to plot. Model
// space has no plot area; asking for one is a usage error.
func (c Calculator) PlotArea(d *drawing.Drawing, l *drawing.Layout) (geom.Bounds2D, error) {
	if l == nil {
		return geom.Bounds2D{}, errors.New(errors.ErrCodeInvalidInput, "layout is nil")
	}
	if l.Kind == drawing.ModelSpace {
		return geom.Bounds2D{}, errors.New(errors.ErrCodeInvalidInput, "model layout %q has no plot area", l.Name)
	}
	switch l.PlotArea {
	case drawing.PlotLayoutInformation:
		return l.PlotRect, nil
	case drawing.PlotDisplay:
		if l.PlotRect.Initialized() {
			return l.PlotRect, nil
		}
	case drawing.PlotExtents:
	default:
		return geom.Bounds2D{}, errors.New(errors.ErrCodeInvalidDrawing, "layout %q: unknown plot area %v", l.Name, l.PlotArea)
	}
	b, err := c.Entities(d, l.Entities)
	if err != nil {
		return geom.Bounds2D{}, err
	}
	return b.XY(), nil
}

func (c Calculator) maxDepth() int {
	if c.MaxDepth > 0 {
		return c.MaxDepth
	}
	return DefaultMaxDepth
}

// =============================================================================
// Traversal
// =============================================================================

// frame maps block-local coordinates to drawing coordinates: xy through a
// 2D affine matrix, z through a scale and offset.
type frame struct {
	m      matrix.Matrix
	sz, tz float64
}

var identity = frame{m: matrix.Matrix{1, 0, 0, 1, 0, 0}, sz: 1}

func (f frame) apply(p geom.Point3D) geom.Point3D {
	return geom.Point3D{
		X: f.m[0]*p.X + f.m[2]*p.Y + f.m[4],
		Y: f.m[1]*p.X + f.m[3]*p.Y + f.m[5],
		Z: f.sz*p.Z + f.tz,
	}
}

// insertFrame returns the frame of ins nested inside parent.
func insertFrame(parent frame, ins *drawing.Insert, base geom.Point3D) frame {
	s := ins.EffectiveScale()
	sin, cos := math.Sincos(ins.Rotation * math.Pi / 180)
	local := matrix.Matrix{1, 0, 0, 1, -base.X, -base.Y}.
		Mul(matrix.Matrix{s.X, 0, 0, s.Y, 0, 0}).
		Mul(matrix.Matrix{cos, sin, -sin, cos, 0, 0}).
		Mul(matrix.Matrix{1, 0, 0, 1, ins.Position.X, ins.Position.Y})
	return frame{
		m:  local.Mul(parent.m),
		sz: parent.sz * s.Z,
		tz: parent.sz*(ins.Position.Z-base.Z*s.Z) + parent.tz,
	}
}

type walker struct {
	d        *drawing.Drawing
	maxDepth int
	budget   *Budget
	active   map[string]bool
	path     []string
}

func (w *walker) walk(entities []drawing.Entity, f frame, depth int) (geom.Bounds3D, error) {
	var total geom.Bounds3D
	for _, e := range entities {
		if e == nil || e.Properties().Invisible {
			continue
		}
		if err := w.budget.Spend(); err != nil {
			return geom.Bounds3D{}, err
		}
		b, err := w.entity(e, f, depth)
		if err != nil {
			return geom.Bounds3D{}, err
		}
		if !b.Initialized() || b.Delta() == (geom.Vector3D{}) {
			continue
		}
		total = total.Union(b)
	}
	return total, nil
}

func (w *walker) entity(e drawing.Entity, f frame, depth int) (geom.Bounds3D, error) {
	switch v := e.(type) {
	case *drawing.Line:
		return geom.BoundsOf(f.apply(v.Start), f.apply(v.End)), nil

	case *drawing.Polyline:
		var b geom.Bounds3D
		for _, p := range v.Points {
			b = b.Merge(f.apply(p))
		}
		return b, nil

	case *drawing.Circle:
		return arcBounds(f, v.Center, v.Radius, 0, 2*math.Pi), nil

	case *drawing.Arc:
		return arcBounds(f, v.Center, v.Radius, v.StartAngle*math.Pi/180, v.Sweep()*math.Pi/180), nil

	case *drawing.Text:
		if v.Value == "" || v.Height <= 0 {
			return geom.Bounds3D{}, nil
		}
		wd, h := v.Width(), v.Height
		sin, cos := math.Sincos(v.Rotation * math.Pi / 180)
		var b geom.Bounds3D
		for _, c := range [4][2]float64{{0, 0}, {wd, 0}, {wd, h}, {0, h}} {
			b = b.Merge(f.apply(geom.Point3D{
				X: v.Position.X + c[0]*cos - c[1]*sin,
				Y: v.Position.Y + c[0]*sin + c[1]*cos,
				Z: v.Position.Z,
			}))
		}
		return b, nil

	case *drawing.Point:
		return geom.Bounds3D{}, nil

	case *drawing.Insert:
		return w.insert(v, f, depth)

	default:
		return geom.Bounds3D{}, errors.New(errors.ErrCodeInvalidDrawing, "unsupported entity type %T", e)
	}
}

func (w *walker) insert(ins *drawing.Insert, f frame, depth int) (geom.Bounds3D, error) {
	blk, ok := w.d.Block(ins.Block)
	if !ok {
		return geom.Bounds3D{}, errors.New(errors.ErrCodeInvalidDrawing, "insert references unknown block %q", ins.Block)
	}
	if w.active[blk.Name] {
		cycle := strings.Join(append(w.path, blk.Name), " -> ")
		return geom.Bounds3D{}, errors.Wrap(errors.ErrCodeStructural, fmt.Errorf("%w: %s", ErrCyclicBlock, cycle), "expand block %q", blk.Name)
	}
	if depth >= w.maxDepth {
		return geom.Bounds3D{}, errors.Wrap(errors.ErrCodeStructural, fmt.Errorf("%w: limit %d", ErrTooDeep, w.maxDepth), "expand block %q", blk.Name)
	}

	w.active[blk.Name] = true
	w.path = append(w.path, blk.Name)
	defer func() {
		delete(w.active, blk.Name)
		w.path = w.path[:len(w.path)-1]
	}()

	return w.walk(blk.Entities, insertFrame(f, ins, blk.Base), depth+1)
}

// arcBounds returns the exact bounds of the circular arc from start through
// start+sweep (radians) after mapping through f. The extremes of an affine
// image of a circle lie at the angles where the derivative of each output
// coordinate vanishes.
func arcBounds(f frame, c geom.Point3D, r, start, sweep float64) geom.Bounds3D {
	if r <= 0 {
		return geom.Bounds3D{}
	}
	at := func(theta float64) geom.Point3D {
		sin, cos := math.Sincos(theta)
		return f.apply(geom.Point3D{X: c.X + r*cos, Y: c.Y + r*sin, Z: c.Z})
	}

	b := geom.BoundsOf(at(start), at(start+sweep))
	tx := math.Atan2(f.m[2], f.m[0])
	ty := math.Atan2(f.m[3], f.m[1])
	for _, theta := range [4]float64{tx, tx + math.Pi, ty, ty + math.Pi} {
		if inSweep(theta, start, sweep) {
			b = b.Merge(at(theta))
		}
	}
	return b
}

func inSweep(theta, start, sweep float64) bool {
	if sweep >= 2*math.Pi {
		return true
	}
	d := math.Mod(theta-start, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d <= sweep+1e-12
}
