package geom

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// =============================================================================
// Bounds3D
// =============================================================================

// Bounds3D is an axis-aligned bounding volume. The zero value is
// uninitialized and contains no points.
type Bounds3D struct {
	min, max Point3D
	ok       bool
}

// BoundsOf folds the given points into a new Bounds3D.
func BoundsOf(points ...Point3D) Bounds3D {
	var b Bounds3D
	for _, p := range points {
		b = b.Merge(p)
	}
	return b
}

// Initialized reports whether at least one point has been merged.
func (b Bounds3D) Initialized() bool { return b.ok }

// Merge returns the smallest bounds containing b and p.
// Points with NaN or infinite coordinates are ignored.
func (b Bounds3D) Merge(p Point3D) Bounds3D {
	if !p.IsFinite() {
		return b
	}
	if !b.ok {
		return Bounds3D{min: p, max: p, ok: true}
	}
	return Bounds3D{
		min: Point3D{X: math.Min(b.min.X, p.X), Y: math.Min(b.min.Y, p.Y), Z: math.Min(b.min.Z, p.Z)},
		max: Point3D{X: math.Max(b.max.X, p.X), Y: math.Max(b.max.Y, p.Y), Z: math.Max(b.max.Z, p.Z)},
		ok:  true,
	}
}

// Union returns the smallest bounds containing both b and o.
// Uninitialized operands are neutral.
func (b Bounds3D) Union(o Bounds3D) Bounds3D {
	if !o.ok {
		return b
	}
	return b.Merge(o.min).Merge(o.max)
}

// Min returns the component-wise minimum corner.
func (b Bounds3D) Min() Point3D {
	b.mustInit("Min")
	return b.min
}

// Max returns the component-wise maximum corner.
func (b Bounds3D) Max() Point3D {
	b.mustInit("Max")
	return b.max
}

// Corner1 is an alias for Min.
func (b Bounds3D) Corner1() Point3D { return b.Min() }

// Corner2 is an alias for Max.
func (b Bounds3D) Corner2() Point3D { return b.Max() }

// Center returns the midpoint of the volume.
func (b Bounds3D) Center() Point3D {
	b.mustInit("Center")
	return Point3D{
		X: (b.min.X + b.max.X) / 2,
		Y: (b.min.Y + b.max.Y) / 2,
		Z: (b.min.Z + b.max.Z) / 2,
	}
}

// Delta returns the extent along each axis.
func (b Bounds3D) Delta() Vector3D {
	b.mustInit("Delta")
	return b.max.Sub(b.min)
}

// Contains reports whether p lies inside b, boundary included.
// An uninitialized bounds contains nothing.
func (b Bounds3D) Contains(p Point3D) bool {
	if !b.ok {
		return false
	}
	return p.X >= b.min.X && p.X <= b.max.X &&
		p.Y >= b.min.Y && p.Y <= b.max.Y &&
		p.Z >= b.min.Z && p.Z <= b.max.Z
}

// XY projects b onto the z = 0 plane.
func (b Bounds3D) XY() Bounds2D {
	if !b.ok {
		return Bounds2D{}
	}
	return Bounds2D{min: b.min.XY(), max: b.max.XY(), ok: true}
}

func (b Bounds3D) String() string {
	if !b.ok {
		return "Bounds3D(empty)"
	}
	return fmt.Sprintf("Bounds3D[%v - %v]", b.min, b.max)
}

func (b Bounds3D) mustInit(op string) {
	if !b.ok {
		panic("geom: " + op + " called on uninitialized Bounds3D")
	}
}

// =============================================================================
// Bounds2D
// =============================================================================

// Bounds2D is the planar counterpart of [Bounds3D], used for declared
// plot-area rectangles.
type Bounds2D struct {
	min, max vec.Vec2
	ok       bool
}

// Bounds2DOf folds the given points into a new Bounds2D.
func Bounds2DOf(points ...vec.Vec2) Bounds2D {
	var b Bounds2D
	for _, p := range points {
		b = b.Merge(p)
	}
	return b
}

// FromRect returns the bounds spanned by the corners of r. The rectangle
// does not need to be normalized.
func FromRect(r rect.Rect) Bounds2D {
	return Bounds2DOf(vec.Vec2{X: r.LLx, Y: r.LLy}, vec.Vec2{X: r.URx, Y: r.URy})
}

// Initialized reports whether at least one point has been merged.
func (b Bounds2D) Initialized() bool { return b.ok }

// Merge returns the smallest bounds containing b and p.
// Points with NaN or infinite coordinates are ignored.
func (b Bounds2D) Merge(p vec.Vec2) Bounds2D {
	if !finite(p.X) || !finite(p.Y) {
		return b
	}
	if !b.ok {
		return Bounds2D{min: p, max: p, ok: true}
	}
	return Bounds2D{
		min: vec.Vec2{X: math.Min(b.min.X, p.X), Y: math.Min(b.min.Y, p.Y)},
		max: vec.Vec2{X: math.Max(b.max.X, p.X), Y: math.Max(b.max.Y, p.Y)},
		ok:  true,
	}
}

// Union returns the smallest bounds containing both b and o.
func (b Bounds2D) Union(o Bounds2D) Bounds2D {
	if !o.ok {
		return b
	}
	return b.Merge(o.min).Merge(o.max)
}

// Min returns the lower-left corner.
func (b Bounds2D) Min() vec.Vec2 {
	b.mustInit("Min")
	return b.min
}

// Max returns the upper-right corner.
func (b Bounds2D) Max() vec.Vec2 {
	b.mustInit("Max")
	return b.max
}

// Center returns the midpoint of the rectangle.
func (b Bounds2D) Center() vec.Vec2 {
	b.mustInit("Center")
	return vec.Vec2{X: (b.min.X + b.max.X) / 2, Y: (b.min.Y + b.max.Y) / 2}
}

// Delta returns the width and height of the rectangle.
func (b Bounds2D) Delta() vec.Vec2 {
	b.mustInit("Delta")
	return vec.Vec2{X: b.max.X - b.min.X, Y: b.max.Y - b.min.Y}
}

// Rect converts b to a [rect.Rect].
func (b Bounds2D) Rect() rect.Rect {
	b.mustInit("Rect")
	return rect.Rect{LLx: b.min.X, LLy: b.min.Y, URx: b.max.X, URy: b.max.Y}
}

// To3D lifts b into the z = 0 plane.
func (b Bounds2D) To3D() Bounds3D {
	if !b.ok {
		return Bounds3D{}
	}
	return BoundsOf(Pt2(b.min.X, b.min.Y), Pt2(b.max.X, b.max.Y))
}

func (b Bounds2D) String() string {
	if !b.ok {
		return "Bounds2D(empty)"
	}
	return fmt.Sprintf("Bounds2D[(%g, %g) - (%g, %g)]", b.min.X, b.min.Y, b.max.X, b.max.Y)
}

func (b Bounds2D) mustInit(op string) {
	if !b.ok {
		panic("geom: " + op + " called on uninitialized Bounds2D")
	}
}
