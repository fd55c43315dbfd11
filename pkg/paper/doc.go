// Package paper chooses output pages for layouts.
//
// Page sizes are in hundredths of an inch ([UnitsPerInch] = 100). A
// [Selector] turns a [Request] into a [Selection]:
//
//   - [ModelSpace]: the aspect-ratio rule with the selector's default margin
//   - [PaperSpace] with layout information in millimetres or inches: a custom
//     page of exactly the plot area's size, margin zero
//   - any other [PaperSpace] request, pixels included: the aspect-ratio rule
//     with the default margin
//
// The aspect-ratio rule picks a landscape page from the [Catalog] when the
// horizontal extent is strictly larger than the vertical one, and a portrait
// page otherwise, so square scenes print portrait.
//
// Uninitialized bounds or plot areas yield an empty selection, which callers
// treat as "nothing to print".
//
// Custom pages are named after a name-based UUID of their dimensions. Equal
// inputs always produce equal descriptors, which keeps exports repeatable
// and cache keys stable.
package paper
