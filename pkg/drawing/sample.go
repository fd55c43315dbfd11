package drawing

import (
	"seehuhn.de/go/geom/vec"

	"github.com/matzehuels/cadpage/pkg/geom"
)

// Sample returns a small drawing that exercises every layout variant:
// model-space geometry with block inserts, millimetre and inch sheets
// declared by layout information, a pixel sheet, an extents sheet and an
// empty sheet. Every call builds a fresh value.
func Sample() *Drawing {
	d := New("sample")

	d.AddBlock(&Block{
		Name: "bolt",
		Entities: []Entity{
			&Circle{Center: geom.Pt2(0, 0), Radius: 0.25},
			&Line{Start: geom.Pt2(-0.35, 0), End: geom.Pt2(0.35, 0)},
			&Line{Start: geom.Pt2(0, -0.35), End: geom.Pt2(0, 0.35)},
		},
	})

	d.Entities = []Entity{
		&Line{Start: geom.Pt2(1, 0), End: geom.Pt2(3, 2)},
		// aligned dimension between the line's end points
		&Line{Props: Props{Layer: "dim"}, Start: geom.Pt2(1, 0), End: geom.Pt2(0.2, 0.8)},
		&Line{Props: Props{Layer: "dim"}, Start: geom.Pt2(3, 2), End: geom.Pt2(2.2, 2.8)},
		&Line{Props: Props{Layer: "dim"}, Start: geom.Pt2(0.4, 0.6), End: geom.Pt2(2.4, 2.6)},
		&Text{Props: Props{Layer: "dim"}, Position: geom.Pt2(1.2, 1.8), Height: 0.18, Rotation: 45, Value: "2.83"},
		&Text{Props: Props{Color: "#0000ff"}, Position: geom.Pt(0, -1, 0), Height: 0.4, Value: "This is some sample text"},
		&Arc{Center: geom.Pt2(2, 1), Radius: 3, StartAngle: 200, EndAngle: 340},
		&Insert{Block: "bolt", Position: geom.Pt2(4, 0)},
		&Insert{Block: "bolt", Position: geom.Pt2(4, 2), Scale: geom.Vector3D{X: 2, Y: 2, Z: 1}, Rotation: 45},
		&Point{Position: geom.Pt2(100, 100)},
		&Line{Props: Props{Invisible: true}, Start: geom.Pt2(-50, -50), End: geom.Pt2(50, 50)},
	}

	d.Views = []View{
		{Name: "Detail", Center: vec.Vec2{X: 2, Y: 1}, Width: 4, Height: 3},
		{Name: "Tilted", Center: vec.Vec2{X: 2, Y: 1}, Width: 8, Height: 4, Twist: 30},
	}

	d.AddLayout(&Layout{
		Name:      "ISO A4",
		TabOrder:  1,
		Kind:      PaperSpace,
		PlotArea:  PlotLayoutInformation,
		PlotUnits: Millimeters,
		PlotRect:  geom.Bounds2DOf(vec.Vec2{}, vec.Vec2{X: 210, Y: 297}),
		Entities:  frame(10, 10, 200, 287, "A4 sheet"),
	})
	d.AddLayout(&Layout{
		Name:      "Letter",
		TabOrder:  2,
		Kind:      PaperSpace,
		PlotArea:  PlotLayoutInformation,
		PlotUnits: Inches,
		PlotRect:  geom.Bounds2DOf(vec.Vec2{}, vec.Vec2{X: 11, Y: 8.5}),
		Entities:  frame(0.5, 0.5, 10.5, 8, "Letter sheet"),
	})
	d.AddLayout(&Layout{
		Name:      "Screen",
		TabOrder:  3,
		Kind:      PaperSpace,
		PlotArea:  PlotLayoutInformation,
		PlotUnits: Pixels,
		PlotRect:  geom.Bounds2DOf(vec.Vec2{}, vec.Vec2{X: 1920, Y: 1080}),
		Entities:  frame(20, 20, 1900, 1060, "Screen"),
	})
	d.AddLayout(&Layout{
		Name:     "Extents",
		TabOrder: 4,
		Kind:     PaperSpace,
		PlotArea: PlotExtents,
		Entities: frame(0, 0, 40, 60, "Title"),
	})
	d.AddLayout(&Layout{
		Name:      "Blank",
		TabOrder:  5,
		Kind:      PaperSpace,
		PlotArea:  PlotLayoutInformation,
		PlotUnits: Millimeters,
	})
	return d
}

// WelcomeSample returns the banner drawing served as the web preview: two
// lines of text in a frame with cut corners.
func WelcomeSample() *Drawing {
	d := New("welcome")

	title := &Text{
		Props:    Props{Color: "#0000ff"},
		Position: geom.Pt2(0, 0),
		Height:   1,
		Value:    "Welcome to cadpage",
	}
	sub := &Text{
		Props:    Props{Color: "#808080"},
		Position: geom.Pt2(0.2, -0.5),
		Height:   0.3,
		Value:    "layouts, pages and transforms",
	}

	const m = 1.0
	minX, minY := title.Position.X, title.Position.Y
	maxX, maxY := minX+title.Width(), minY+title.Height
	border := &Polyline{
		Props:  Props{Color: "#008000"},
		Closed: true,
		Points: []geom.Point3D{
			geom.Pt2(minX-m, minY),
			geom.Pt2(minX, minY-m),
			geom.Pt2(maxX, minY-m),
			geom.Pt2(maxX+m, minY),
			geom.Pt2(maxX+m, maxY),
			geom.Pt2(maxX, maxY+m),
			geom.Pt2(minX, maxY+m),
			geom.Pt2(minX-m, maxY),
		},
	}

	d.Entities = []Entity{title, sub, border}
	return d
}

func frame(x0, y0, x1, y1 float64, label string) []Entity {
	h := (y1 - y0) / 40
	return []Entity{
		&Polyline{
			Closed: true,
			Points: []geom.Point3D{geom.Pt2(x0, y0), geom.Pt2(x1, y0), geom.Pt2(x1, y1), geom.Pt2(x0, y1)},
		},
		&Text{Position: geom.Pt2(x0+h, y0+h), Height: h, Value: label},
	}
}
