package sink

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/matzehuels/cadpage/pkg/export"
)

type jsonOutput struct {
	export.PageSummary
	Paths  []jsonPath   `json:"paths"`
	Labels []jsonLabel  `json:"labels,omitempty"`
	Dots   [][2]float64 `json:"dots,omitempty"`
}

type jsonPath struct {
	Points [][2]float64 `json:"points"`
	Closed bool         `json:"closed,omitempty"`
	Color  string       `json:"color"`
}

type jsonLabel struct {
	At    [2]float64 `json:"at"`
	Size  float64    `json:"size"`
	Angle float64    `json:"angle,omitempty"`
	Value string     `json:"value"`
	Color string     `json:"color"`
}

// RenderJSON renders p as JSON: the page summary plus the flattened
// geometry in page units.
func RenderJSON(p export.Page, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, p, DefaultConfig(opts...)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes p as JSON to w.
func WriteJSON(w io.Writer, p export.Page, cfg Config) error {
	s, err := BuildScene(p, cfg)
	if err != nil {
		return err
	}
	out := jsonOutput{PageSummary: p.Summary(), Paths: make([]jsonPath, 0, len(s.Paths))}
	for _, path := range s.Paths {
		jp := jsonPath{Closed: path.Closed, Color: HexColor(path.Color), Points: make([][2]float64, len(path.Points))}
		for i, v := range path.Points {
			jp.Points[i] = [2]float64{v.X, v.Y}
		}
		out.Paths = append(out.Paths, jp)
	}
	for _, l := range s.Labels {
		out.Labels = append(out.Labels, jsonLabel{
			At:    [2]float64{l.At.X, l.At.Y},
			Size:  l.Size,
			Angle: l.Angle,
			Value: l.Value,
			Color: HexColor(l.Color),
		})
	}
	for _, d := range s.Dots {
		out.Dots = append(out.Dots, [2]float64{d.At.X, d.At.Y})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
