// Package export drives a drawing through page selection and transform
// construction, one layout at a time.
//
// # Flow
//
// For every layout, model space first and paper layouts in tab order:
//
//  1. compute what is to be plotted ([bounds.Calculator])
//  2. choose a page ([paper.Selector])
//  3. derive the page transform ([transform.Builder])
//  4. hand the resulting [Page] to a [Renderer]
//
// Layouts with nothing to plot are skipped without error. A layout whose
// blocks are malformed fails on its own; the remaining layouts are still
// exported and the failures are joined into the returned error.
//
// # Concurrency
//
// [Exporter.Export] walks the layouts sequentially. [Exporter.ExportConcurrent]
// plans and draws them on a bounded worker pool and reports pages in the
// same order. Layouts only share read access to the drawing, so the only
// requirement is a reentrant [Renderer].
package export
