package transform

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/cadpage/pkg/geom"
)

// Matrix4 is a 4x4 affine matrix, row-major, acting on column vectors:
// p' = M * (x, y, z, 1).
type Matrix4 [4][4]float64

// Identity is the identity transform.
var Identity = Matrix4{
	{1, 0, 0, 0},
	{0, 1, 0, 0},
	{0, 0, 1, 0},
	{0, 0, 0, 1},
}

// Translation returns a pure translation by v.
func Translation(v geom.Vector3D) Matrix4 {
	m := Identity
	m[0][3], m[1][3], m[2][3] = v.X, v.Y, v.Z
	return m
}

// Scaling returns a per-axis scale about the origin.
func Scaling(sx, sy, sz float64) Matrix4 {
	m := Identity
	m[0][0], m[1][1], m[2][2] = sx, sy, sz
	return m
}

// RotationZ returns a counter-clockwise rotation about the z axis by deg
// degrees.
func RotationZ(deg float64) Matrix4 {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	m := Identity
	m[0][0], m[0][1] = cos, -sin
	m[1][0], m[1][1] = sin, cos
	return m
}

// Apply maps p through m.
func (m Matrix4) Apply(p geom.Point3D) geom.Point3D {
	return geom.Point3D{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// Mul returns m * n, the transform that applies n first and then m.
func (m Matrix4) Mul(n Matrix4) Matrix4 {
	var out Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m[i][k] * n[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

// Affine2D reduces m to the 2D affine matrix used by seehuhn.de/go/geom,
// dropping z. The result follows the row-vector convention (x y 1) * M.
func (m Matrix4) Affine2D() matrix.Matrix {
	return matrix.Matrix{m[0][0], m[1][0], m[0][1], m[1][1], m[0][3], m[1][3]}
}

// FromAffine2D lifts a 2D affine matrix into a Matrix4 that leaves z
// unchanged.
func FromAffine2D(a matrix.Matrix) Matrix4 {
	return Matrix4{
		{a[0], a[2], 0, a[4]},
		{a[1], a[3], 0, a[5]},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

func (m Matrix4) String() string {
	return fmt.Sprintf("[%g %g %g %g; %g %g %g %g; %g %g %g %g]",
		m[0][0], m[0][1], m[0][2], m[0][3],
		m[1][0], m[1][1], m[1][2], m[1][3],
		m[2][0], m[2][1], m[2][2], m[2][3])
}
