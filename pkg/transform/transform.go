package transform

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"

	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/geom"
	"github.com/matzehuels/cadpage/pkg/paper"
)

// InchToPixel converts inches to page units.
const InchToPixel = 100.0

// Mode says how a transform was derived.
type Mode int

const (
	// ModeBoundsFit fits source bounds into the margined page.
	ModeBoundsFit Mode = iota
	// ModeView delegates to a named view's own mapping.
	ModeView
)

func (m Mode) String() string {
	switch m {
	case ModeBoundsFit:
		return "bounds-fit"
	case ModeView:
		return "view"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Result is a transform together with the scale it applies.
type Result struct {
	Matrix Matrix4
	// ScaleFactor is destination units per source unit, or NaN in view mode.
	ScaleFactor float64
	Mode        Mode
	// Target is the margined destination rectangle, in page units.
	Target rect.Rect
}

// =============================================================================
// Three-correspondence fit
// =============================================================================

// ScaleTransform builds the similarity transform that fits the source box
// [srcMin, srcMax] into [dstMin, dstMax] and maps srcCenter onto dstCenter.
//
// The scale magnitude is the smallest |ratio| over the x and y axes with a
// non-zero source extent, so the content never overflows. Each axis keeps
// the sign of its own ratio, which lets a destination flip y. When neither
// axis has extent the scale is 1. z is scaled by the magnitude.
//
// The returned scale factor is the magnitude.
func ScaleTransform(srcMin, srcMax, srcCenter, dstMin, dstMax, dstCenter geom.Point3D) (Matrix4, float64) {
	src := [2]float64{srcMax.X - srcMin.X, srcMax.Y - srcMin.Y}
	dst := [2]float64{dstMax.X - dstMin.X, dstMax.Y - dstMin.Y}

	mag := math.Inf(1)
	var sign [2]float64
	for i := range src {
		sign[i] = 1
		if src[i] == 0 {
			if dst[i] < 0 {
				sign[i] = -1
			}
			continue
		}
		r := dst[i] / src[i]
		if r < 0 {
			sign[i] = -1
		}
		mag = math.Min(mag, math.Abs(r))
	}
	if math.IsInf(mag, 1) {
		mag = 1
	}

	sx, sy, sz := sign[0]*mag, sign[1]*mag, mag
	m := Scaling(sx, sy, sz)
	m[0][3] = dstCenter.X - sx*srcCenter.X
	m[1][3] = dstCenter.Y - sy*srcCenter.Y
	m[2][3] = dstCenter.Z - sz*srcCenter.Z
	return m, mag
}

// =============================================================================
// Builder
// =============================================================================

// Builder derives page transforms. The zero value converts inches with
// [InchToPixel].
type Builder struct {
	InchToPixel float64
}

func (b Builder) inchToPixel() float64 {
	if b.InchToPixel > 0 {
		return b.InchToPixel
	}
	return InchToPixel
}

// target returns the page rectangle inset by margin inches, in page units.
func (b Builder) target(page paper.PageDescriptor, margin float64) (rect.Rect, error) {
	if err := page.Validate(); err != nil {
		return rect.Rect{}, err
	}
	w, h := page.WidthInches(), page.HeightInches()
	if math.IsNaN(margin) || margin < 0 || margin >= math.Min(w, h)/2 {
		return rect.Rect{}, errors.New(errors.ErrCodeInvalidInput,
			"margin %g in must be non-negative and less than half of the %gx%g in page", margin, w, h)
	}
	k := b.inchToPixel()
	return rect.Rect{LLx: margin * k, LLy: margin * k, URx: (w - margin) * k, URy: (h - margin) * k}, nil
}

// BoundsFit maps bounds onto page: the min corner lands at (m, m), the max
// corner at (W-m, H-m) and the top centre of the bounds at (W/2, H-m), all in
// page units with the margin m given in inches. The content is scaled
// uniformly, centred horizontally and anchored to the top margin.
func (b Builder) BoundsFit(bounds geom.Bounds3D, page paper.PageDescriptor, margin float64) (Result, error) {
	if !bounds.Initialized() {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "bounds are uninitialized")
	}
	tgt, err := b.target(page, margin)
	if err != nil {
		return Result{}, err
	}
	k := b.inchToPixel()
	w, h := page.WidthInches(), page.HeightInches()

	m, s := ScaleTransform(
		bounds.Corner1(),
		bounds.Corner2(),
		geom.Pt(bounds.Center().X, bounds.Corner2().Y, 0),
		geom.Pt(margin*k, margin*k, 0),
		geom.Pt((w-margin)*k, (h-margin)*k, 0),
		geom.Pt(w/2*k, (h-margin)*k, 0),
	)
	return Result{Matrix: m, ScaleFactor: s, Mode: ModeBoundsFit, Target: tgt}, nil
}

// ViewFit maps a model-space view onto page by delegating to
// [drawing.View.MappingTransform] over the page inset by margin inches.
// The scale factor is NaN.
func (b Builder) ViewFit(view *drawing.View, page paper.PageDescriptor, margin float64) (Result, error) {
	if view == nil {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "view is nil")
	}
	tgt, err := b.target(page, margin)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Matrix:      FromAffine2D(view.MappingTransform(tgt)),
		ScaleFactor: math.NaN(),
		Mode:        ModeView,
		Target:      tgt,
	}, nil
}

// ImageFit maps bounds into a width x height raster with y pointing down,
// centring the content and leaving pad pixels on every side.
func ImageFit(bounds geom.Bounds3D, width, height, pad float64) (Result, error) {
	if !bounds.Initialized() {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "bounds are uninitialized")
	}
	if !(width > 0) || !(height > 0) {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "image size %gx%g must be positive", width, height)
	}
	if pad < 0 || pad >= math.Min(width, height)/2 {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "padding %g too large for %gx%g image", pad, width, height)
	}
	m, s := ScaleTransform(
		bounds.Min(),
		bounds.Max(),
		bounds.Center(),
		geom.Pt(pad, height-pad, 0),
		geom.Pt(width-pad, pad, 0),
		geom.Pt(width/2, height/2, 0),
	)
	return Result{
		Matrix:      m,
		ScaleFactor: s,
		Mode:        ModeBoundsFit,
		Target:      rect.Rect{LLx: pad, LLy: pad, URx: width - pad, URy: height - pad},
	}, nil
}

// FlipY returns the transform that turns y-up page coordinates of the given
// height into y-down raster coordinates.
func FlipY(height float64) Matrix4 {
	m := Scaling(1, -1, 1)
	m[1][3] = height
	return m
}
