// Package geom provides the small set of value types shared by the bounds,
// paper and transform packages: 3D points and vectors, and axis-aligned
// bounding volumes over them.
//
// # Bounds
//
// [Bounds3D] and [Bounds2D] are immutable accumulators. A zero value is
// uninitialized; [Bounds3D.Merge] returns a new value that includes one more
// point:
//
//	var b geom.Bounds3D
//	for _, p := range points {
//	    b = b.Merge(p)
//	}
//	if !b.Initialized() {
//	    // nothing visible
//	}
//
// Reading Min, Max, Center or Delta from an uninitialized value panics.
// Callers must check [Bounds3D.Initialized] first; an empty scene is a state
// to be handled, never a zero-sized box.
//
// Merging is commutative and associative, so any fold order over the same
// points yields the same bounds. Values can be shared freely between
// goroutines.
//
// # Interop
//
// [Bounds2D] converts to and from [rect.Rect] of seehuhn.de/go/geom so that
// plot areas and page boxes can be handed to the PDF writer directly.
//
// [rect.Rect]: https://pkg.go.dev/seehuhn.de/go/geom/rect#Rect
package geom
