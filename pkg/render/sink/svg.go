package sink

import (
	"bytes"
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"seehuhn.de/go/geom/vec"

	"github.com/matzehuels/cadpage/pkg/export"
	"github.com/matzehuels/cadpage/pkg/fonts"
)

// svgSubunits is the number of SVG user units per page unit. svgo works
// in integers, so page units are subdivided to keep small geometry sharp.
const svgSubunits = 10

// RenderSVG renders p as an SVG document sized in inches.
func RenderSVG(p export.Page, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, p, DefaultConfig(opts...)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSVG writes p as SVG to w.
func WriteSVG(w io.Writer, p export.Page, cfg Config) error {
	s, err := BuildScene(p, cfg)
	if err != nil {
		return err
	}
	writeSceneSVG(w, s, cfg)
	return nil
}

func writeSceneSVG(w io.Writer, s *Scene, cfg Config) {
	vw := int(math.Ceil(s.Width * svgSubunits))
	vh := int(math.Ceil(s.Height * svgSubunits))
	// svgo sizes Startview in pixels; 96 px per inch is the CSS reference.
	pw := int(math.Round(s.Width / 100 * 96))
	ph := int(math.Round(s.Height / 100 * 96))

	canvas := svg.New(w)
	canvas.Startview(pw, ph, 0, 0, vw, vh)
	canvas.Title(s.Title)
	canvas.Rect(0, 0, vw, vh, "fill:"+HexColor(cfg.Background))

	xy := func(v vec.Vec2) (int, int) {
		return int(math.Round(v.X * svgSubunits)), int(math.Round((s.Height - v.Y) * svgSubunits))
	}
	stroke := int(math.Max(1, math.Round(cfg.LineWidth*svgSubunits)))

	canvas.Gstyle(fmt.Sprintf("fill:none;stroke-width:%d;stroke-linecap:round;stroke-linejoin:round", stroke))
	for _, path := range s.Paths {
		xs := make([]int, len(path.Points))
		ys := make([]int, len(path.Points))
		for i, v := range path.Points {
			xs[i], ys[i] = xy(v)
		}
		style := "stroke:" + HexColor(path.Color)
		if path.Closed {
			canvas.Polygon(xs, ys, style+";fill:none")
		} else {
			canvas.Polyline(xs, ys, style)
		}
	}
	canvas.Gend()

	r := int(math.Max(1, math.Round(cfg.PointRadius*svgSubunits)))
	for _, d := range s.Dots {
		x, y := xy(d.At)
		canvas.Circle(x, y, r, "fill:"+HexColor(d.Color))
	}

	for _, l := range s.Labels {
		x, y := xy(l.At)
		size := int(math.Max(1, math.Round(l.Size*svgSubunits)))
		canvas.Gtransform(fmt.Sprintf("rotate(%.3f %d %d)", -l.Angle, x, y))
		canvas.Text(x, y, l.Value,
			fmt.Sprintf("fill:%s;font-size:%dpx;font-family:%s", HexColor(l.Color), size, fonts.FontFamily))
		canvas.Gend()
	}
	canvas.End()
}
