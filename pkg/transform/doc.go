// Package transform builds the affine maps from drawing space to page space.
//
// # Modes
//
// [Builder.BoundsFit] is used for paper-space layouts and for model space
// without a view. It derives the map from three correspondences between a
// source box and the margined page: min corner, max corner and the top
// centre. The scale is uniform and equals the tighter of the two axis
// ratios, so content never leaves the margined rectangle.
//
// [Builder.ViewFit] is used for model space with a named view. The view
// supplies its own mapping into the margined page and no single scale factor
// is reported (NaN).
//
// # Units
//
// Pages are sized in hundredths of an inch and margins are given in inches.
// [InchToPixel] converts between them; callers never mix the two.
//
// # Matrices
//
// [Matrix4] is a row-major 4x4 matrix acting on column vectors. 2D renderers
// use [Matrix4.Affine2D] to obtain the seehuhn.de/go/geom matrix they draw
// with.
package transform
