package drawing

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// View is a named model-space window: a rectangle of Width x Height drawing
// units centred on Center, rotated by Twist degrees.
type View struct {
	Name   string
	Center vec.Vec2
	Width  float64
	Height float64
	Twist  float64
}

// MappingTransform returns the 2D affine map that projects the view window
// into dst, preserving aspect ratio and centring the window in dst. The
// matrix follows the seehuhn row-vector convention: (x y 1) * M.
//
// A view with zero width and height maps at unit scale.
func (v *View) MappingTransform(dst rect.Rect) matrix.Matrix {
	dw := math.Abs(dst.URx - dst.LLx)
	dh := math.Abs(dst.URy - dst.LLy)

	w, h := math.Abs(v.Width), math.Abs(v.Height)
	s := 1.0
	switch {
	case w > 0 && h > 0:
		s = math.Min(dw/w, dh/h)
	case w > 0:
		s = dw / w
	case h > 0:
		s = dh / h
	}

	sin, cos := math.Sincos(-v.Twist * math.Pi / 180)
	toOrigin := matrix.Matrix{1, 0, 0, 1, -v.Center.X, -v.Center.Y}
	rotate := matrix.Matrix{cos, sin, -sin, cos, 0, 0}
	scale := matrix.Matrix{s, 0, 0, s, 0, 0}
	toDst := matrix.Matrix{1, 0, 0, 1, (dst.LLx + dst.URx) / 2, (dst.LLy + dst.URy) / 2}

	return toOrigin.Mul(rotate).Mul(scale).Mul(toDst)
}

// Window returns the view's corners in drawing coordinates, counter-clockwise
// from lower left.
func (v *View) Window() [4]vec.Vec2 {
	hw, hh := v.Width/2, v.Height/2
	sin, cos := math.Sincos(v.Twist * math.Pi / 180)
	corner := func(dx, dy float64) vec.Vec2 {
		return vec.Vec2{
			X: v.Center.X + dx*cos - dy*sin,
			Y: v.Center.Y + dx*sin + dy*cos,
		}
	}
	return [4]vec.Vec2{corner(-hw, -hh), corner(hw, -hh), corner(hw, hh), corner(-hw, hh)}
}
