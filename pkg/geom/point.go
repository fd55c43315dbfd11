package geom

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/vec"
)

// Point3D is a location in drawing space.
type Point3D struct {
	X, Y, Z float64
}

// Vector3D is a displacement or per-axis extent.
type Vector3D struct {
	X, Y, Z float64
}

// Pt is shorthand for Point3D{x, y, z}.
func Pt(x, y, z float64) Point3D {
	return Point3D{X: x, Y: y, Z: z}
}

// Pt2 returns a point in the z = 0 plane.
func Pt2(x, y float64) Point3D {
	return Point3D{X: x, Y: y}
}

// Add translates p by v.
func (p Point3D) Add(v Vector3D) Point3D {
	return Point3D{X: p.X + v.X, Y: p.Y + v.Y, Z: p.Z + v.Z}
}

// Sub returns the vector from q to p.
func (p Point3D) Sub(q Point3D) Vector3D {
	return Vector3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// XY drops the z coordinate.
func (p Point3D) XY() vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}

// IsFinite reports whether all coordinates are finite numbers.
func (p Point3D) IsFinite() bool {
	return finite(p.X) && finite(p.Y) && finite(p.Z)
}

func (p Point3D) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Scale multiplies every component by s.
func (v Vector3D) Scale(s float64) Vector3D {
	return Vector3D{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length returns the Euclidean norm of v.
func (v Vector3D) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vector3D) String() string {
	return fmt.Sprintf("<%g, %g, %g>", v.X, v.Y, v.Z)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
