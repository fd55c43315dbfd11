// Package fonts provides the typeface used for text in raster and vector
// output.
//
// Labels are set in Go Regular, which ships with golang.org/x/image, so PNG
// output does not depend on fonts installed on the host.
package fonts

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// FontFamily is the CSS font-family used by the SVG sink.
const FontFamily = `'Go', 'DejaVu Sans', Arial, sans-serif`

// ReferenceSize is the pixel size faces are built at. Callers scale the
// drawing context to reach other sizes, which keeps glyph caches small.
const ReferenceSize = 32.0

var (
	regular     *truetype.Font
	regularErr  error
	regularOnce sync.Once
)

// Regular returns the parsed Go Regular font.
func Regular() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = truetype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// Face returns a face of Go Regular whose em is size pixels high.
func Face(size float64) (font.Face, error) {
	f, err := Regular()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone}), nil
}
