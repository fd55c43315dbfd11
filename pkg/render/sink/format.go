package sink

import (
	"bytes"
	"cmp"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/export"
)

// Format names an output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatPDF, FormatSVG, FormatPNG, FormatJSON}
}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats(), f) {
		return "", errors.New(errors.ErrCodeUnsupported, "unsupported format %q (want pdf, svg, png or json)", s)
	}
	return f, nil
}

// ParseFormats parses a list of format names, dropping duplicates.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	default:
		return "application/json"
	}
}

// Write renders p in format f to w.
func Write(w io.Writer, f Format, p export.Page, cfg Config) error {
	switch f {
	case FormatPDF:
		return WritePDF(w, p, cfg)
	case FormatSVG:
		return WriteSVG(w, p, cfg)
	case FormatPNG:
		return WritePNG(w, p, cfg)
	case FormatJSON:
		return WriteJSON(w, p, cfg)
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
	}
}

// FileName returns the output name for one layout: "<base>.<ext>" when the
// export has a single page, "<base>-<layout>.<ext>" otherwise.
func FileName(base, layout string, single bool, f Format) string {
	if single {
		return base + "." + string(f)
	}
	return base + "-" + errors.SanitizeFileComponent(layout) + "." + string(f)
}

// =============================================================================
// Collector
// =============================================================================

// Artifact is one rendered page, or a whole document when Document is set.
type Artifact struct {
	Index  int
	Layout string // empty for documents
	Format Format
	Data   []byte
	// Document marks a multi-page PDF holding every planned page.
	Document bool
}

// Collector is an [export.Renderer] that renders every page in each of its
// formats and keeps the results in memory. It is safe for concurrent use;
// each page renders into its own buffer.
type Collector struct {
	formats []Format
	cfg     Config

	mu        sync.Mutex
	artifacts []Artifact
}

// NewCollector returns a collector for the given formats. cfg is copied.
func NewCollector(cfg Config, formats ...Format) *Collector {
	return &Collector{formats: slices.Clone(formats), cfg: cfg}
}

// DrawPage implements [export.Renderer].
func (c *Collector) DrawPage(p export.Page) error {
	out := make([]Artifact, 0, len(c.formats))
	for _, f := range c.formats {
		var buf bytes.Buffer
		if err := Write(&buf, f, p, c.cfg); err != nil {
			return err
		}
		out = append(out, Artifact{Index: p.Index, Layout: p.Layout.Name, Format: f, Data: buf.Bytes()})
	}
	c.mu.Lock()
	c.artifacts = append(c.artifacts, out...)
	c.mu.Unlock()
	return nil
}

// Artifacts returns the collected artifacts ordered by page and then by
// format, independent of the order pages were drawn in.
func (c *Collector) Artifacts() []Artifact {
	c.mu.Lock()
	out := slices.Clone(c.artifacts)
	c.mu.Unlock()

	rank := func(f Format) int { return slices.Index(c.formats, f) }
	slices.SortStableFunc(out, func(a, b Artifact) int {
		if n := cmp.Compare(a.Index, b.Index); n != 0 {
			return n
		}
		return cmp.Compare(rank(a.Format), rank(b.Format))
	})
	return out
}
