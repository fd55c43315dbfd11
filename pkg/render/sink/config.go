package sink

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Config controls how pages are drawn. Values are plain structs: every
// render call starts from a fresh copy, so tweaking one export never leaks
// into the next.
type Config struct {
	Background color.RGBA
	Foreground color.RGBA
	// LineWidth is the stroke width in page units (1/100 in).
	LineWidth float64
	// PointRadius is the radius of point entities in page units.
	PointRadius float64
	DrawText    bool
	// ArcSegments is the number of segments used for a full circle.
	ArcSegments int
	// PNGScale is the number of pixels per page unit in PNG output.
	PNGScale float64
}

// Option adjusts a Config.
type Option func(*Config)

// WhiteBackground draws black on white.
func WhiteBackground() Config {
	return Config{
		Background:  color.RGBA{0xff, 0xff, 0xff, 0xff},
		Foreground:  color.RGBA{0, 0, 0, 0xff},
		LineWidth:   1,
		PointRadius: 1.5,
		DrawText:    true,
		ArcSegments: 72,
		PNGScale:    1,
	}
}

// BlackBackground draws white on black.
func BlackBackground() Config {
	c := WhiteBackground()
	c.Background, c.Foreground = c.Foreground, c.Background
	return c
}

// DefaultConfig returns [WhiteBackground] with opts applied.
func DefaultConfig(opts ...Option) Config {
	c := WhiteBackground()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a copy of c with opts applied.
func (c Config) Apply(opts ...Option) Config {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func WithBackground(bg color.RGBA) Option { return func(c *Config) { c.Background = bg } }
func WithForeground(fg color.RGBA) Option { return func(c *Config) { c.Foreground = fg } }
func WithLineWidth(w float64) Option      { return func(c *Config) { c.LineWidth = w } }
func WithoutText() Option                 { return func(c *Config) { c.DrawText = false } }
func WithPNGScale(s float64) Option       { return func(c *Config) { c.PNGScale = s } }

// WithTheme replaces the whole configuration with a named preset:
// "white" or "black".
func WithTheme(name string) Option {
	return func(c *Config) {
		switch strings.ToLower(name) {
		case "black", "dark":
			*c = BlackBackground()
		default:
			*c = WhiteBackground()
		}
	}
}

// ParseColor parses "#rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok || len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// HexColor formats c as "#rrggbb".
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// entityColor resolves an entity colour against the configuration. Empty or
// unparsable colours, and colours that would vanish into the background,
// become the foreground.
func (c Config) entityColor(s string) color.RGBA {
	if s == "" {
		return c.Foreground
	}
	col, err := ParseColor(s)
	if err != nil || col == c.Background {
		return c.Foreground
	}
	return col
}

func (c Config) arcSegments() int {
	if c.ArcSegments >= 8 {
		return c.ArcSegments
	}
	return 8
}
