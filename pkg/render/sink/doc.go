// Package sink renders planned pages to output formats.
//
// # Overview
//
// A "sink" turns an [export.Page] into bytes. Every sink first flattens the
// page into a [Scene]: entities are walked through the page transform, block
// inserts are expanded, arcs and circles are tessellated and text becomes
// positioned labels. The scene is then written as:
//
//   - PDF: one page of the selected paper size (seehuhn.de/go/pdf); text
//     is omitted because no font is embedded
//   - SVG: an inch-sized document drawn with github.com/ajstarks/svgo
//   - PNG: a raster drawn with github.com/fogleman/gg, text set in Go Regular
//   - JSON: the page summary plus the flattened geometry
//
// # Configuration
//
// [Config] carries colours, line width and text handling. [DefaultConfig],
// [WhiteBackground] and [BlackBackground] return fresh values, and
// [Option] functions tweak a copy:
//
//	pdf, err := sink.RenderPDF(page, sink.WithLineWidth(0.5))
//	png, err := sink.RenderPNG(page, sink.WithTheme("black"), sink.WithPNGScale(2))
//
// # Exporting every layout
//
// [Collector] implements [export.Renderer]. It renders each page in all
// requested formats and can be used with the concurrent exporter:
//
//	c := sink.NewCollector(sink.DefaultConfig(), sink.FormatPDF, sink.FormatSVG)
//	_, err := exporter.ExportConcurrent(ctx, d, export.Options{}, c, 4)
//	for _, a := range c.Artifacts() { ... }
//
// # Auto-sized images
//
// [RenderImage] skips paper selection entirely and fits the model space
// into a fixed-size bitmap, as used for previews.
package sink
