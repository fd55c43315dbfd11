package export

import (
	"encoding/json"
	"io"
	"math"
)

// PageSummary is the serialisable form of a [Page].
type PageSummary struct {
	Index  int     `json:"index"`
	Layout string  `json:"layout"`
	Kind   string  `json:"kind"`
	View   string  `json:"view,omitempty"`
	Paper  string  `json:"paper"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin float64 `json:"margin"`
	Source string  `json:"source"`
	Mode   string  `json:"mode"`
	// Scale is null in view mode.
	Scale  *float64   `json:"scale"`
	Matrix [6]float64 `json:"matrix"`
	Target [4]float64 `json:"target"`
}

// Summary describes a plan without the drawing it refers to.
type Summary struct {
	Drawing string            `json:"drawing"`
	Pages   []PageSummary     `json:"pages"`
	Skipped []string          `json:"skipped,omitempty"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// Summary returns the serialisable form of p.
func (p Page) Summary() PageSummary {
	s := PageSummary{
		Index:  p.Index,
		Layout: p.Layout.Name,
		Kind:   p.Layout.Kind.String(),
		Paper:  p.Paper.Page.Name,
		Width:  p.Paper.Page.Width,
		Height: p.Paper.Page.Height,
		Margin: p.Paper.Margin,
		Source: p.Paper.Source.String(),
		Mode:   p.Transform.Mode.String(),
		Matrix: p.Transform.Matrix.Affine2D(),
		Target: [4]float64{p.Transform.Target.LLx, p.Transform.Target.LLy, p.Transform.Target.URx, p.Transform.Target.URy},
	}
	if p.View != nil {
		s.View = p.View.Name
	}
	if !math.IsNaN(p.Transform.ScaleFactor) {
		f := p.Transform.ScaleFactor
		s.Scale = &f
	}
	return s
}

// Summary returns the serialisable form of p.
func (p Plan) Summary() Summary {
	s := Summary{Drawing: p.Drawing, Pages: make([]PageSummary, 0, len(p.Pages)), Skipped: p.Skipped}
	for _, pg := range p.Pages {
		s.Pages = append(s.Pages, pg.Summary())
	}
	if len(p.Failed) > 0 {
		s.Failed = make(map[string]string, len(p.Failed))
		for _, f := range p.Failed {
			s.Failed[f.Layout] = f.Err.Error()
		}
	}
	return s
}

// WriteJSON writes the plan summary as indented JSON.
func (p Plan) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p.Summary())
}
