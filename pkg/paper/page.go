package paper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/cadpage/pkg/errors"
)

const (
	// UnitsPerInch is the number of page units per inch. Page sizes are
	// expressed in hundredths of an inch.
	UnitsPerInch = 100.0

	// MillimetersPerInch converts millimetre plot areas to inches.
	MillimetersPerInch = 25.4

	// DefaultMargin is the margin, in inches, applied to pages chosen by the
	// aspect-ratio rule.
	DefaultMargin = 0.5
)

// Orientation of a page. A square page is portrait.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// PageDescriptor is an output page. Width and Height are in hundredths of
// an inch.
type PageDescriptor struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Orientation derives the page orientation; ties are portrait.
func (p PageDescriptor) Orientation() Orientation {
	if p.Width > p.Height {
		return Landscape
	}
	return Portrait
}

// Rotated swaps width and height.
func (p PageDescriptor) Rotated() PageDescriptor {
	name := p.Name
	if base, ok := strings.CutSuffix(name, rotatedSuffix); ok {
		name = base
	} else if name != "" {
		name += rotatedSuffix
	}
	return PageDescriptor{Name: name, Width: p.Height, Height: p.Width}
}

// Oriented returns p or its rotation so that it has orientation o.
func (p PageDescriptor) Oriented(o Orientation) PageDescriptor {
	if p.Orientation() == o {
		return p
	}
	return p.Rotated()
}

// WidthInches returns the page width in inches.
func (p PageDescriptor) WidthInches() float64 { return p.Width / UnitsPerInch }

// HeightInches returns the page height in inches.
func (p PageDescriptor) HeightInches() float64 { return p.Height / UnitsPerInch }

// Validate checks that both dimensions are positive.
func (p PageDescriptor) Validate() error {
	if !(p.Width > 0) || !(p.Height > 0) {
		return errors.New(errors.ErrCodeInvalidPaper, "page %q has non-positive size %gx%g", p.Name, p.Width, p.Height)
	}
	return nil
}

func (p PageDescriptor) String() string {
	return fmt.Sprintf("%s (%gx%g)", p.Name, p.Width, p.Height)
}

const rotatedSuffix = " Rotated"

// =============================================================================
// Standard sizes
// =============================================================================

// Standard portrait pages, in hundredths of an inch.
var (
	A3      = PageDescriptor{Name: "A3", Width: 1169, Height: 1654}
	A4      = PageDescriptor{Name: "A4", Width: 827, Height: 1169}
	A5      = PageDescriptor{Name: "A5", Width: 583, Height: 827}
	Letter  = PageDescriptor{Name: "Letter", Width: 850, Height: 1100}
	Legal   = PageDescriptor{Name: "Legal", Width: 850, Height: 1400}
	Tabloid = PageDescriptor{Name: "Tabloid", Width: 1100, Height: 1700}
)

var standard = map[string]PageDescriptor{
	"a3":      A3,
	"a4":      A4,
	"a5":      A5,
	"letter":  Letter,
	"legal":   Legal,
	"tabloid": Tabloid,
}

// StandardNames lists the names accepted by [Standard].
func StandardNames() []string {
	return []string{"A3", "A4", "A5", "Letter", "Legal", "Tabloid"}
}

// Standard looks up a standard page by case-insensitive name. A "rotated"
// or "landscape" suffix returns the rotated variant.
func Standard(name string) (PageDescriptor, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	rotate := false
	for _, suffix := range []string{" rotated", "rotated", "-landscape", " landscape"} {
		if base, ok := strings.CutSuffix(key, suffix); ok {
			key, rotate = strings.TrimSpace(base), true
			break
		}
	}
	p, ok := standard[key]
	if !ok {
		return PageDescriptor{}, false
	}
	if rotate {
		p = p.Rotated()
	}
	return p, true
}

// customNamespace scopes the name-based UUIDs of custom pages.
var customNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/cadpage/paper"))

// CustomPage returns a page of the given size, in hundredths of an inch.
// Its name is derived from the dimensions, so equal sizes always produce
// equal descriptors.
func CustomPage(width, height float64) PageDescriptor {
	key := strconv.FormatFloat(width, 'g', -1, 64) + "x" + strconv.FormatFloat(height, 'g', -1, 64)
	return PageDescriptor{
		Name:   "custom-" + uuid.NewSHA1(customNamespace, []byte(key)).String(),
		Width:  width,
		Height: height,
	}
}

// Parse interprets a page specification: a standard name ("A4",
// "letter rotated") or explicit dimensions with a unit ("210x297mm",
// "8.5x11in"). Dimensions without a unit are hundredths of an inch.
func Parse(spec string) (PageDescriptor, error) {
	if p, ok := Standard(spec); ok {
		return p, nil
	}

	s := strings.ToLower(strings.TrimSpace(spec))
	factor := 1.0
	switch {
	case strings.HasSuffix(s, "mm"):
		s, factor = strings.TrimSuffix(s, "mm"), UnitsPerInch/MillimetersPerInch
	case strings.HasSuffix(s, "in"):
		s, factor = strings.TrimSuffix(s, "in"), UnitsPerInch
	}
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return PageDescriptor{}, errors.New(errors.ErrCodeInvalidPaper, "unknown paper %q (want one of %s or WxH[mm|in])",
			spec, strings.Join(StandardNames(), ", "))
	}
	w, errW := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	h, errH := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if errW != nil || errH != nil {
		return PageDescriptor{}, errors.New(errors.ErrCodeInvalidPaper, "invalid paper dimensions %q", spec)
	}
	p := CustomPage(w*factor, h*factor)
	if err := p.Validate(); err != nil {
		return PageDescriptor{}, err
	}
	return p, nil
}

// =============================================================================
// Catalog
// =============================================================================

// Catalog is an ordered set of candidate pages for the aspect-ratio rule.
type Catalog []PageDescriptor

// DefaultCatalog returns A4 and its rotated variant.
func DefaultCatalog() Catalog {
	return Catalog{A4, A4.Rotated()}
}

// CatalogOf builds a catalog holding each page and its rotation, in order.
func CatalogOf(pages ...PageDescriptor) (Catalog, error) {
	c := make(Catalog, 0, 2*len(pages))
	for _, p := range pages {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		c = append(c, p)
		if p.Width != p.Height {
			c = append(c, p.Rotated())
		}
	}
	return c, nil
}

// ParseCatalog builds a catalog from page specifications understood by
// [Parse].
func ParseCatalog(specs ...string) (Catalog, error) {
	pages := make([]PageDescriptor, 0, len(specs))
	for _, s := range specs {
		p, err := Parse(s)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return CatalogOf(pages...)
}

// Pick returns the first page with orientation o. When no entry matches,
// the first entry is rotated to fit. An empty catalog behaves like
// [DefaultCatalog].
func (c Catalog) Pick(o Orientation) PageDescriptor {
	if len(c) == 0 {
		c = DefaultCatalog()
	}
	for _, p := range c {
		if p.Orientation() == o {
			return p
		}
	}
	return c[0].Oriented(o)
}

// Names returns the page names in order.
func (c Catalog) Names() []string {
	out := make([]string, len(c))
	for i, p := range c {
		out[i] = p.Name
	}
	return out
}
