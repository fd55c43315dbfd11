package sink

import (
	"bytes"
	"image/color"
	"io"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/graphics"
	pdfcolor "seehuhn.de/go/pdf/graphics/color"

	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/export"
)

// pointsPerUnit converts page units (1/100 in) to PDF points.
const pointsPerUnit = 72.0 / 100

// RenderPDF renders p as a single-page PDF of the selected paper size.
// Text is not embedded.
func RenderPDF(p export.Page, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, p, DefaultConfig(opts...)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePDF writes p as PDF to w.
func WritePDF(w io.Writer, p export.Page, cfg Config) error {
	s, err := BuildScene(p, cfg)
	if err != nil {
		return err
	}
	page, err := document.WriteSinglePage(w, pdfBox(s), pdf.V1_7, nil)
	if err != nil {
		return err
	}
	drawPDF(page, s, cfg)
	return page.Close()
}

// RenderPDFDocument renders pages into one PDF, one PDF page per layout,
// each with its own paper size.
func RenderPDFDocument(pages []export.Page, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDFDocument(&buf, pages, DefaultConfig(opts...)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePDFDocument writes pages as a multi-page PDF to w. All scenes are
// built before anything is written, so a failing page leaves w untouched.
func WritePDFDocument(w io.Writer, pages []export.Page, cfg Config) error {
	if len(pages) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no pages to write")
	}
	scenes := make([]*Scene, len(pages))
	for i, p := range pages {
		s, err := BuildScene(p, cfg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "page %d", p.Index)
		}
		scenes[i] = s
	}

	doc, err := document.WriteMultiPage(w, pdfBox(scenes[0]), pdf.V1_7, nil)
	if err != nil {
		return err
	}
	for _, s := range scenes {
		page := doc.AddPage()
		page.SetPageSize(pdfBox(s))
		drawPDF(page, s, cfg)
		if err := page.Close(); err != nil {
			return err
		}
	}
	return doc.Close()
}

func pdfBox(s *Scene) *pdf.Rectangle {
	return &pdf.Rectangle{URx: s.Width * pointsPerUnit, URy: s.Height * pointsPerUnit}
}

// drawPDF draws s onto page in page units.
func drawPDF(page *document.Page, s *Scene, cfg Config) {
	page.Transform(matrix.Matrix{pointsPerUnit, 0, 0, pointsPerUnit, 0, 0})

	page.SetFillColor(rgb(cfg.Background))
	page.Rectangle(0, 0, s.Width, s.Height)
	page.Fill()

	page.SetLineWidth(cfg.LineWidth)
	page.SetLineCap(graphics.LineCapRound)
	page.SetLineJoin(graphics.LineJoinRound)
	for _, path := range s.Paths {
		if len(path.Points) == 0 {
			continue
		}
		page.SetStrokeColor(rgb(path.Color))
		page.MoveTo(path.Points[0].X, path.Points[0].Y)
		for _, v := range path.Points[1:] {
			page.LineTo(v.X, v.Y)
		}
		if path.Closed {
			page.CloseAndStroke()
		} else {
			page.Stroke()
		}
	}

	r := math.Max(cfg.PointRadius, 0.5)
	for _, d := range s.Dots {
		page.SetFillColor(rgb(d.Color))
		page.Circle(d.At.X, d.At.Y, r)
		page.Fill()
	}
}

func rgb(c color.RGBA) pdfcolor.Color {
	return pdfcolor.DeviceRGB{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}
