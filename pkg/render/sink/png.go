package sink

import (
	"bytes"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/cadpage/pkg/bounds"
	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/export"
	"github.com/matzehuels/cadpage/pkg/fonts"
	"github.com/matzehuels/cadpage/pkg/transform"
)

// Default raster size and padding of [RenderImage].
const (
	DefaultImageWidth   = 600
	DefaultImageHeight  = 500
	DefaultImagePadding = 10
)

// RenderPNG renders p as a PNG, [Config.PNGScale] pixels per page unit.
func RenderPNG(p export.Page, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, p, DefaultConfig(opts...)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePNG writes p as PNG to w.
func WritePNG(w io.Writer, p export.Page, cfg Config) error {
	s, err := BuildScene(p, cfg)
	if err != nil {
		return err
	}
	scale := cfg.PNGScale
	if scale <= 0 {
		scale = 1
	}
	return rasterize(s, scale, cfg).EncodePNG(w)
}

// RenderImage draws the model space of d into a width x height bitmap,
// fitting its bounds with pad pixels to spare. A drawing with nothing
// visible yields a blank image.
func RenderImage(d *drawing.Drawing, width, height int, pad float64, opts ...Option) ([]byte, error) {
	if d == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "drawing is nil")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "image size %dx%d must be positive", width, height)
	}
	cfg := DefaultConfig(opts...)
	s := &Scene{Title: d.Name, Width: float64(width), Height: float64(height)}

	b, err := bounds.Calculator{}.Drawing(d)
	if err != nil {
		return nil, err
	}
	if b.Initialized() {
		fit, err := transform.ImageFit(b, float64(width), float64(height), pad)
		if err != nil {
			return nil, err
		}
		// ImageFit is y-down; scenes are y-up.
		m := transform.FlipY(float64(height)).Mul(fit.Matrix)
		sb := sceneBuilder{d: d, cfg: cfg, out: s}
		if err := sb.walk(d.Entities, m, 0); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := rasterize(s, 1, cfg).EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rasterize(s *Scene, scale float64, cfg Config) *gg.Context {
	w := int(math.Ceil(s.Width * scale))
	h := int(math.Ceil(s.Height * scale))
	dc := gg.NewContext(max(w, 1), max(h, 1))

	dc.SetColor(cfg.Background)
	dc.Clear()

	x := func(v float64) float64 { return v * scale }
	y := func(v float64) float64 { return (s.Height - v) * scale }

	dc.SetLineWidth(math.Max(cfg.LineWidth*scale, 1))
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	for _, p := range s.Paths {
		if len(p.Points) == 0 {
			continue
		}
		dc.SetColor(p.Color)
		dc.MoveTo(x(p.Points[0].X), y(p.Points[0].Y))
		for _, v := range p.Points[1:] {
			dc.LineTo(x(v.X), y(v.Y))
		}
		if p.Closed {
			dc.ClosePath()
		}
		dc.Stroke()
	}

	r := math.Max(cfg.PointRadius*scale, 1)
	for _, d := range s.Dots {
		dc.SetColor(d.Color)
		dc.DrawCircle(x(d.At.X), y(d.At.Y), r)
		dc.Fill()
	}

	if len(s.Labels) == 0 {
		return dc
	}
	face, err := fonts.Face(fonts.ReferenceSize)
	if err != nil {
		return dc
	}
	dc.SetFontFace(face)
	for _, l := range s.Labels {
		k := l.Size * scale / fonts.ReferenceSize
		if k <= 0 {
			continue
		}
		dc.Push()
		dc.SetColor(l.Color)
		dc.Translate(x(l.At.X), y(l.At.Y))
		dc.Rotate(-gg.Radians(l.Angle))
		dc.Scale(k, k)
		dc.DrawString(l.Value, 0, 0)
		dc.Pop()
	}
	return dc
}
