package drawing

import "github.com/matzehuels/cadpage/pkg/geom"

// EntityType names a concrete entity variant.
type EntityType string

const (
	TypeLine     EntityType = "line"
	TypePolyline EntityType = "polyline"
	TypeCircle   EntityType = "circle"
	TypeArc      EntityType = "arc"
	TypeText     EntityType = "text"
	TypePoint    EntityType = "point"
	TypeInsert   EntityType = "insert"
)

// TextWidthFactor estimates the advance of one character as a multiple of
// the text height. Real glyph metrics are not available without a font.
const TextWidthFactor = 0.6

// Entity is one of the concrete entity types in this package. The set is
// closed: consumers dispatch with a type switch over the pointer types.
type Entity interface {
	Type() EntityType
	Properties() Props
}

// Props holds the attributes every entity carries.
type Props struct {
	Layer     string
	Color     string // "#rrggbb"; empty means the renderer's foreground
	Invisible bool
}

// Properties implements [Entity].
func (p Props) Properties() Props { return p }

// Line is a straight segment.
type Line struct {
	Props
	Start, End geom.Point3D
}

// Polyline is a sequence of connected segments.
type Polyline struct {
	Props
	Points []geom.Point3D
	Closed bool
}

// Circle is a full circle in a plane parallel to XY.
type Circle struct {
	Props
	Center geom.Point3D
	Radius float64
}

// Arc is a counter-clockwise circular arc. Angles are in degrees.
type Arc struct {
	Props
	Center     geom.Point3D
	Radius     float64
	StartAngle float64
	EndAngle   float64
}

// Text is a single line of text anchored at its lower-left corner.
// Rotation is in degrees.
type Text struct {
	Props
	Position geom.Point3D
	Height   float64
	Rotation float64
	Value    string
}

// Point is a single location marker. It has no extent.
type Point struct {
	Props
	Position geom.Point3D
}

// Insert places a block at Position, scaled per axis and rotated about z
// by Rotation degrees.
type Insert struct {
	Props
	Block    string
	Position geom.Point3D
	Scale    geom.Vector3D
	Rotation float64
}

func (*Line) Type() EntityType     { return TypeLine }
func (*Polyline) Type() EntityType { return TypePolyline }
func (*Circle) Type() EntityType   { return TypeCircle }
func (*Arc) Type() EntityType      { return TypeArc }
func (*Text) Type() EntityType     { return TypeText }
func (*Point) Type() EntityType    { return TypePoint }
func (*Insert) Type() EntityType   { return TypeInsert }

// EffectiveScale returns the insert's scale with zero components replaced
// by 1, so that an omitted scale means "unscaled".
func (i *Insert) EffectiveScale() geom.Vector3D {
	s := i.Scale
	if s.X == 0 {
		s.X = 1
	}
	if s.Y == 0 {
		s.Y = 1
	}
	if s.Z == 0 {
		s.Z = 1
	}
	return s
}

// Width estimates the text's advance width.
func (t *Text) Width() float64 {
	return TextWidthFactor * t.Height * float64(len([]rune(t.Value)))
}

// Sweep returns the arc's counter-clockwise sweep in degrees, in (0, 360].
func (a *Arc) Sweep() float64 {
	s := a.EndAngle - a.StartAngle
	for s <= 0 {
		s += 360
	}
	for s > 360 {
		s -= 360
	}
	return s
}
