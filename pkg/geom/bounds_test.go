package geom

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

func TestBounds3DZeroValue(t *testing.T) {
	var b Bounds3D
	if b.Initialized() {
		t.Error("zero Bounds3D reports Initialized() = true")
	}
	if got := BoundsOf(); got.Initialized() {
		t.Error("BoundsOf() with no points is initialized")
	}
	if b.Contains(Pt(0, 0, 0)) {
		t.Error("uninitialized bounds contains the origin")
	}
}

func TestBounds3DReadPanicsWhenUninitialized(t *testing.T) {
	var b Bounds3D
	reads := map[string]func(){
		"Min":    func() { b.Min() },
		"Max":    func() { b.Max() },
		"Center": func() { b.Center() },
		"Delta":  func() { b.Delta() },
	}
	for name, read := range reads {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic on uninitialized bounds", name)
				}
			}()
			read()
		})
	}
}

func TestBounds3DMerge(t *testing.T) {
	b := BoundsOf(Pt(1, 2, 3), Pt(-1, 5, 0), Pt(4, -2, 1))

	if got, want := b.Min(), Pt(-1, -2, 0); got != want {
		t.Errorf("Min() = %v, want %v", got, want)
	}
	if got, want := b.Max(), Pt(4, 5, 3); got != want {
		t.Errorf("Max() = %v, want %v", got, want)
	}
	if got, want := b.Center(), Pt(1.5, 1.5, 1.5); got != want {
		t.Errorf("Center() = %v, want %v", got, want)
	}
	if got, want := b.Delta(), (Vector3D{X: 5, Y: 7, Z: 3}); got != want {
		t.Errorf("Delta() = %v, want %v", got, want)
	}
	if b.Corner1() != b.Min() || b.Corner2() != b.Max() {
		t.Error("Corner1/Corner2 do not alias Min/Max")
	}
}

func TestBounds3DMergeIsImmutable(t *testing.T) {
	a := BoundsOf(Pt(0, 0, 0))
	b := a.Merge(Pt(10, 10, 10))

	if a.Max() != Pt(0, 0, 0) {
		t.Errorf("Merge mutated receiver: Max() = %v", a.Max())
	}
	if b.Max() != Pt(10, 10, 10) {
		t.Errorf("merged Max() = %v, want (10, 10, 10)", b.Max())
	}
}

func TestBounds3DIgnoresNonFinite(t *testing.T) {
	b := BoundsOf(Pt(math.NaN(), 0, 0), Pt(math.Inf(1), 1, 1))
	if b.Initialized() {
		t.Errorf("non-finite points initialized bounds: %v", b)
	}
}

func TestBounds3DOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(20)
		pts := make([]Point3D, n)
		for i := range pts {
			pts[i] = Pt(rng.NormFloat64()*100, rng.NormFloat64()*100, rng.NormFloat64())
		}
		want := BoundsOf(pts...)

		shuffled := append([]Point3D(nil), pts...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := BoundsOf(shuffled...); got != want {
			t.Fatalf("trial %d: shuffled fold = %v, want %v", trial, got, want)
		}

		// split fold then union is the same as a single fold
		k := rng.Intn(n + 1)
		if got := BoundsOf(pts[:k]...).Union(BoundsOf(pts[k:]...)); got != want {
			t.Fatalf("trial %d: split union = %v, want %v", trial, got, want)
		}
	}
}

func TestBounds3DMonotone(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	var b Bounds3D
	for i := 0; i < 100; i++ {
		p := Pt(rng.Float64()*10-5, rng.Float64()*10-5, 0)
		next := b.Merge(p)
		if b.Initialized() {
			if !next.Contains(b.Min()) || !next.Contains(b.Max()) {
				t.Fatalf("step %d: bounds shrank from %v to %v", i, b, next)
			}
		}
		if !next.Contains(p) {
			t.Fatalf("step %d: %v does not contain merged point %v", i, next, p)
		}
		b = next
	}
}

func TestBounds3DUnionWithEmpty(t *testing.T) {
	b := BoundsOf(Pt(1, 1, 1), Pt(2, 2, 2))
	var empty Bounds3D

	if got := b.Union(empty); got != b {
		t.Errorf("b.Union(empty) = %v, want %v", got, b)
	}
	if got := empty.Union(b); got != b {
		t.Errorf("empty.Union(b) = %v, want %v", got, b)
	}
}

func TestBounds2DRectRoundTrip(t *testing.T) {
	r := rect.Rect{LLx: 10, LLy: 20, URx: 0, URy: 50}
	b := FromRect(r)

	want := rect.Rect{LLx: 0, LLy: 20, URx: 10, URy: 50}
	if diff := cmp.Diff(want, b.Rect()); diff != "" {
		t.Errorf("Rect() mismatch (-want +got):\n%s", diff)
	}
	if got, want := b.Delta(), (vec.Vec2{X: 10, Y: 30}); got != want {
		t.Errorf("Delta() = %v, want %v", got, want)
	}
}

func TestBounds2DTo3D(t *testing.T) {
	b := Bounds2DOf(vec.Vec2{X: -1, Y: -2}, vec.Vec2{X: 3, Y: 4}).To3D()
	if got, want := b.Min(), Pt(-1, -2, 0); got != want {
		t.Errorf("Min() = %v, want %v", got, want)
	}
	if got, want := b.Max(), Pt(3, 4, 0); got != want {
		t.Errorf("Max() = %v, want %v", got, want)
	}
	if (Bounds2D{}).To3D().Initialized() {
		t.Error("empty Bounds2D lifted to initialized Bounds3D")
	}
}

func TestBounds3DXY(t *testing.T) {
	b := BoundsOf(Pt(1, 2, 3), Pt(4, 5, 6)).XY()
	if got, want := b.Center(), (vec.Vec2{X: 2.5, Y: 3.5}); got != want {
		t.Errorf("Center() = %v, want %v", got, want)
	}
}
