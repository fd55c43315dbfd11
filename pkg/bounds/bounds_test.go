package bounds

import (
	stderrors "errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"seehuhn.de/go/geom/vec"

	"github.com/matzehuels/cadpage/pkg/drawing"
	"github.com/matzehuels/cadpage/pkg/errors"
	"github.com/matzehuels/cadpage/pkg/geom"
)

const eps = 1e-9

func near(a, b geom.Point3D) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func assertBounds(t *testing.T, b geom.Bounds3D, min, max geom.Point3D) {
	t.Helper()
	if !b.Initialized() {
		t.Fatalf("bounds uninitialized, want [%v - %v]", min, max)
	}
	if !near(b.Min(), min) || !near(b.Max(), max) {
		t.Errorf("bounds = %v, want [%v - %v]", b, min, max)
	}
}

func TestDrawingBasic(t *testing.T) {
	d := drawing.New("t")
	d.Entities = []drawing.Entity{
		&drawing.Line{Start: geom.Pt2(0, 0), End: geom.Pt2(10, 5)},
		&drawing.Circle{Center: geom.Pt(20, 0, 3), Radius: 2},
	}

	b, err := Calculator{}.Drawing(d)
	if err != nil {
		t.Fatalf("Drawing() error = %v", err)
	}
	assertBounds(t, b, geom.Pt(0, -2, 0), geom.Pt(22, 5, 3))
}

func TestDrawingSkipsDegenerate(t *testing.T) {
	tests := []struct {
		name     string
		entities []drawing.Entity
	}{
		{"empty", nil},
		{"point", []drawing.Entity{&drawing.Point{Position: geom.Pt2(1, 1)}}},
		{"zero-length line", []drawing.Entity{&drawing.Line{Start: geom.Pt2(3, 3), End: geom.Pt2(3, 3)}}},
		{"zero radius", []drawing.Entity{&drawing.Circle{Center: geom.Pt2(1, 2)}}},
		{"empty text", []drawing.Entity{&drawing.Text{Position: geom.Pt2(1, 2), Height: 1}}},
		{"invisible", []drawing.Entity{&drawing.Line{
			Props: drawing.Props{Invisible: true},
			Start: geom.Pt2(0, 0), End: geom.Pt2(10, 10),
		}}},
		{"single-vertex polyline", []drawing.Entity{&drawing.Polyline{Points: []geom.Point3D{geom.Pt2(4, 4)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := drawing.New("t")
			d.Entities = tt.entities
			b, err := Calculator{}.Drawing(d)
			if err != nil {
				t.Fatalf("Drawing() error = %v", err)
			}
			if b.Initialized() {
				t.Errorf("bounds = %v, want uninitialized", b)
			}
		})
	}
}

func TestDrawingNil(t *testing.T) {
	_, err := Calculator{}.Drawing(nil)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Drawing(nil) error = %v, want INVALID_INPUT", err)
	}
}

func TestArcBounds(t *testing.T) {
	tests := []struct {
		name     string
		arc      drawing.Arc
		min, max geom.Point3D
	}{
		{
			name: "first quadrant",
			arc:  drawing.Arc{Radius: 1, StartAngle: 0, EndAngle: 90},
			min:  geom.Pt2(0, 0), max: geom.Pt2(1, 1),
		},
		{
			name: "wraps through zero",
			arc:  drawing.Arc{Radius: 2, StartAngle: 270, EndAngle: 90},
			min:  geom.Pt2(0, -2), max: geom.Pt2(2, 2),
		},
		{
			name: "lower half",
			arc:  drawing.Arc{Center: geom.Pt2(5, 5), Radius: 1, StartAngle: 180, EndAngle: 360},
			min:  geom.Pt2(4, 4), max: geom.Pt2(6, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arc := tt.arc
			b, err := Calculator{}.Entities(drawing.New("t"), []drawing.Entity{&arc})
			if err != nil {
				t.Fatalf("Entities() error = %v", err)
			}
			assertBounds(t, b, tt.min, tt.max)
		})
	}
}

func TestTextBounds(t *testing.T) {
	txt := &drawing.Text{Position: geom.Pt2(1, 1), Height: 2, Value: "abcde", Rotation: 90}
	b, err := Calculator{}.Entities(drawing.New("t"), []drawing.Entity{txt})
	if err != nil {
		t.Fatalf("Entities() error = %v", err)
	}
	// width 0.6 * 2 * 5 = 6 runs along +y after rotation
	assertBounds(t, b, geom.Pt2(-1, 1), geom.Pt2(1, 7))
}

func blockDrawing() *drawing.Drawing {
	d := drawing.New("blocks")
	d.AddBlock(&drawing.Block{
		Name:     "tick",
		Entities: []drawing.Entity{&drawing.Line{Start: geom.Pt2(0, 0), End: geom.Pt2(1, 0)}},
	})
	d.AddBlock(&drawing.Block{
		Name: "ring",
		Base: geom.Pt2(5, 5),
		Entities: []drawing.Entity{
			&drawing.Circle{Center: geom.Pt2(5, 5), Radius: 1},
		},
	})
	d.AddBlock(&drawing.Block{
		Name: "pair",
		Entities: []drawing.Entity{
			&drawing.Insert{Block: "tick", Position: geom.Pt2(0, 0)},
			&drawing.Insert{Block: "tick", Position: geom.Pt2(0, 3)},
		},
	})
	return d
}

func TestInsertTransforms(t *testing.T) {
	tests := []struct {
		name     string
		insert   drawing.Insert
		min, max geom.Point3D
	}{
		{
			name:   "translated",
			insert: drawing.Insert{Block: "tick", Position: geom.Pt2(10, 10)},
			min:    geom.Pt2(10, 10), max: geom.Pt2(11, 10),
		},
		{
			name:   "scaled and rotated",
			insert: drawing.Insert{Block: "tick", Position: geom.Pt2(10, 10), Scale: geom.Vector3D{X: 2, Y: 2, Z: 1}, Rotation: 90},
			min:    geom.Pt2(10, 10), max: geom.Pt2(10, 12),
		},
		{
			name:   "base point",
			insert: drawing.Insert{Block: "ring", Position: geom.Pt2(0, 0)},
			min:    geom.Pt2(-1, -1), max: geom.Pt2(1, 1),
		},
		{
			name:   "non-uniform rotated circle",
			insert: drawing.Insert{Block: "ring", Scale: geom.Vector3D{X: 2, Y: 1, Z: 1}, Rotation: 90},
			min:    geom.Pt2(-1, -2), max: geom.Pt2(1, 2),
		},
		{
			name:   "nested",
			insert: drawing.Insert{Block: "pair", Position: geom.Pt(1, 1, 4)},
			min:    geom.Pt(1, 1, 4), max: geom.Pt(2, 4, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ins := tt.insert
			b, err := Calculator{}.Entities(blockDrawing(), []drawing.Entity{&ins})
			if err != nil {
				t.Fatalf("Entities() error = %v", err)
			}
			assertBounds(t, b, tt.min, tt.max)
		})
	}
}

func TestCyclicBlocks(t *testing.T) {
	tests := []struct {
		name   string
		blocks map[string][]string
	}{
		{"self", map[string][]string{"A": {"A"}}},
		{"indirect", map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := drawing.New("cyclic")
			for name, refs := range tt.blocks {
				b := &drawing.Block{Name: name, Entities: []drawing.Entity{
					&drawing.Line{Start: geom.Pt2(0, 0), End: geom.Pt2(1, 1)},
				}}
				for _, r := range refs {
					b.Entities = append(b.Entities, &drawing.Insert{Block: r})
				}
				d.AddBlock(b)
			}
			d.Entities = []drawing.Entity{&drawing.Insert{Block: "A"}}

			_, err := Calculator{}.Drawing(d)
			if !stderrors.Is(err, ErrCyclicBlock) {
				t.Fatalf("Drawing() error = %v, want ErrCyclicBlock", err)
			}
			if !errors.Is(err, errors.ErrCodeStructural) {
				t.Errorf("GetCode() = %v, want STRUCTURAL_DRAWING", errors.GetCode(err))
			}
		})
	}
}

func TestRepeatedBlockIsNotACycle(t *testing.T) {
	d := blockDrawing()
	d.Entities = []drawing.Entity{
		&drawing.Insert{Block: "pair"},
		&drawing.Insert{Block: "pair", Position: geom.Pt2(5, 0)},
		&drawing.Insert{Block: "tick", Position: geom.Pt2(0, -1)},
	}
	b, err := Calculator{}.Drawing(d)
	if err != nil {
		t.Fatalf("Drawing() error = %v", err)
	}
	assertBounds(t, b, geom.Pt2(0, -1), geom.Pt2(6, 3))
}

func TestTooDeep(t *testing.T) {
	d := drawing.New("deep")
	const n = 10
	for i := 0; i < n; i++ {
		b := &drawing.Block{Name: fmt.Sprintf("b%d", i), Entities: []drawing.Entity{
			&drawing.Line{Start: geom.Pt2(0, 0), End: geom.Pt2(1, 1)},
		}}
		if i+1 < n {
			b.Entities = append(b.Entities, &drawing.Insert{Block: fmt.Sprintf("b%d", i+1)})
		}
		d.AddBlock(b)
	}
	d.Entities = []drawing.Entity{&drawing.Insert{Block: "b0"}}

	if _, err := (Calculator{MaxDepth: n}).Drawing(d); err != nil {
		t.Fatalf("depth %d within limit: error = %v", n, err)
	}
	_, err := Calculator{MaxDepth: 3}.Drawing(d)
	if !stderrors.Is(err, ErrTooDeep) {
		t.Fatalf("Drawing() error = %v, want ErrTooDeep", err)
	}
	if !errors.Is(err, errors.ErrCodeStructural) {
		t.Errorf("GetCode() = %v, want STRUCTURAL_DRAWING", errors.GetCode(err))
	}
}

// diamondDrawing chains n blocks where each inserts the next one twice, so
// full expansion visits about 2^n entities.
func diamondDrawing(n int) *drawing.Drawing {
	d := drawing.New("diamond")
	for i := 0; i < n; i++ {
		b := &drawing.Block{Name: fmt.Sprintf("d%d", i), Entities: []drawing.Entity{
			&drawing.Line{Start: geom.Pt2(0, 0), End: geom.Pt2(1, 1)},
		}}
		if i+1 < n {
			next := fmt.Sprintf("d%d", i+1)
			b.Entities = append(b.Entities,
				&drawing.Insert{Block: next},
				&drawing.Insert{Block: next, Position: geom.Pt2(1, 0)},
			)
		}
		d.AddBlock(b)
	}
	d.Entities = []drawing.Entity{&drawing.Insert{Block: "d0"}}
	return d
}

func TestDiamondBlocks(t *testing.T) {
	b, err := Calculator{}.Drawing(diamondDrawing(8))
	if err != nil {
		t.Fatalf("small diamond: error = %v", err)
	}
	assertBounds(t, b, geom.Pt2(0, 0), geom.Pt2(8, 1))

	_, err = Calculator{}.Drawing(diamondDrawing(40))
	if !stderrors.Is(err, ErrTooManyEntities) {
		t.Fatalf("Drawing() error = %v, want ErrTooManyEntities", err)
	}
	if !errors.Is(err, errors.ErrCodeStructural) {
		t.Errorf("GetCode() = %v, want STRUCTURAL_DRAWING", errors.GetCode(err))
	}

	_, err = Calculator{MaxVisits: 100}.Drawing(diamondDrawing(8))
	if !stderrors.Is(err, ErrTooManyEntities) {
		t.Errorf("MaxVisits 100: error = %v, want ErrTooManyEntities", err)
	}
}

func TestBudget(t *testing.T) {
	b := NewBudget(2)
	for i := 0; i < 2; i++ {
		if err := b.Spend(); err != nil {
			t.Fatalf("Spend() #%d error = %v", i+1, err)
		}
	}
	if err := b.Spend(); !stderrors.Is(err, ErrTooManyEntities) {
		t.Errorf("Spend() past limit = %v, want ErrTooManyEntities", err)
	}
	if b.Used() != 3 {
		t.Errorf("Used() = %d, want 3", b.Used())
	}
	if got := NewBudget(0).limit; got != DefaultMaxVisits {
		t.Errorf("NewBudget(0).limit = %d, want %d", got, DefaultMaxVisits)
	}
}

func TestMissingBlock(t *testing.T) {
	d := drawing.New("missing")
	d.Entities = []drawing.Entity{&drawing.Insert{Block: "ghost"}}
	_, err := Calculator{}.Drawing(d)
	if !errors.Is(err, errors.ErrCodeInvalidDrawing) {
		t.Errorf("Drawing() error = %v, want INVALID_DRAWING", err)
	}
}

func TestOrderIndependent(t *testing.T) {
	d := drawing.Sample()
	want, err := Calculator{}.Drawing(d)
	if err != nil {
		t.Fatalf("Drawing() error = %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		ents := append([]drawing.Entity(nil), d.Entities...)
		rng.Shuffle(len(ents), func(i, j int) { ents[i], ents[j] = ents[j], ents[i] })
		got, err := Calculator{}.Entities(d, ents)
		if err != nil {
			t.Fatalf("Entities() error = %v", err)
		}
		if got != want {
			t.Fatalf("shuffle %d: bounds = %v, want %v", i, got, want)
		}
	}
}

func TestSampleIgnoresHiddenAndPoints(t *testing.T) {
	b, err := Calculator{}.Drawing(drawing.Sample())
	if err != nil {
		t.Fatalf("Drawing() error = %v", err)
	}
	if !b.Initialized() {
		t.Fatal("sample bounds uninitialized")
	}
	if b.Max().X >= 50 || b.Min().X <= -50 {
		t.Errorf("bounds %v include the point marker or the invisible line", b)
	}
}

func TestPlotArea(t *testing.T) {
	d := drawing.Sample()
	calc := Calculator{}

	tests := []struct {
		layout string
		want   geom.Bounds2D
	}{
		{"ISO A4", geom.Bounds2DOf(vec.Vec2{}, vec.Vec2{X: 210, Y: 297})},
		{"Extents", geom.Bounds2DOf(vec.Vec2{}, vec.Vec2{X: 40, Y: 60})},
		{"Blank", geom.Bounds2D{}},
	}
	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			l, _ := d.Layout(tt.layout)
			got, err := calc.PlotArea(d, l)
			if err != nil {
				t.Fatalf("PlotArea() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("PlotArea() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := calc.PlotArea(d, d.ModelLayout()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("PlotArea(model) error = %v, want INVALID_INPUT", err)
	}
}

func TestPlotAreaDisplayFallsBackToExtents(t *testing.T) {
	d := drawing.New("display")
	l := d.AddLayout(&drawing.Layout{
		Name:     "D",
		Kind:     drawing.PaperSpace,
		PlotArea: drawing.PlotDisplay,
		Entities: []drawing.Entity{&drawing.Line{Start: geom.Pt2(1, 2), End: geom.Pt2(3, 4)}},
	})
	got, err := Calculator{}.PlotArea(d, l)
	if err != nil {
		t.Fatalf("PlotArea() error = %v", err)
	}
	if want := geom.Bounds2DOf(vec.Vec2{X: 1, Y: 2}, vec.Vec2{X: 3, Y: 4}); got != want {
		t.Errorf("PlotArea() = %v, want %v", got, want)
	}
}
