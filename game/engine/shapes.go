package engine

import (
	"fmt"
	"sync"
)

// ShapeType identifies one of the six fleet shapes.
type ShapeType int8

const (
	ShapeHelicarrier ShapeType = iota
	ShapeCarrier
	ShapeBattleship
	ShapeDestroyer
	ShapeSubmarine
	ShapePatrolBoat
)

// ShapeTypes lists all fleet shapes in descending cell-count order.
// This is also the placement order: the helicarrier is the hardest to
// fit and must go first.
var ShapeTypes = [FleetSize]ShapeType{
	ShapeHelicarrier,
	ShapeCarrier,
	ShapeBattleship,
	ShapeDestroyer,
	ShapeSubmarine,
	ShapePatrolBoat,
}

func (t ShapeType) String() string {
	switch t {
	case ShapeHelicarrier:
		return "helicarrier"
	case ShapeCarrier:
		return "carrier"
	case ShapeBattleship:
		return "battleship"
	case ShapeDestroyer:
		return "destroyer"
	case ShapeSubmarine:
		return "submarine"
	case ShapePatrolBoat:
		return "patrol_boat"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the shape type as its lowercase name.
func (t ShapeType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes a shape type from its lowercase name.
func (t *ShapeType) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("invalid shape type %s", data)
	}
	parsed, err := ParseShapeType(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseShapeType maps the wire name of a shape to its value.
func ParseShapeType(s string) (ShapeType, error) {
	for _, t := range ShapeTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid shape type %q", s)
}

// Shape is the immutable canonical (vertical) layout of a fleet shape.
type Shape struct {
	Type      ShapeType
	Width     int
	Height    int
	CellCount int

	grid  [][]bool // grid[y][x], vertical orientation
	cells []Point  // relative occupied coordinates, row-major
}

// canonical vertical layouts; 'X' marks an occupied cell
var shapeLayouts = map[ShapeType][]string{
	ShapeHelicarrier: {
		"XXX",
		".X.",
		"XXX",
		".X.",
		"XXX",
	},
	ShapeCarrier:    {"X", "X", "X", "X", "X"},
	ShapeBattleship: {"X", "X", "X", "X"},
	ShapeDestroyer:  {"X", "X", "X"},
	ShapeSubmarine:  {"X", "X", "X"},
	ShapePatrolBoat: {"X", "X"},
}

var (
	shapeTable     map[ShapeType]*Shape
	shapeTableOnce sync.Once
)

func buildShapeTable() {
	shapeTable = make(map[ShapeType]*Shape, FleetSize)
	for t, layout := range shapeLayouts {
		s := &Shape{
			Type:   t,
			Width:  len(layout[0]),
			Height: len(layout),
		}
		s.grid = make([][]bool, s.Height)
		for y, row := range layout {
			s.grid[y] = make([]bool, s.Width)
			for x := 0; x < s.Width; x++ {
				if row[x] == 'X' {
					s.grid[y][x] = true
					s.cells = append(s.cells, Point{X: x, Y: y})
					s.CellCount++
				}
			}
		}
		shapeTable[t] = s
	}
}

// ShapeOf returns the interned shape for the given type. The table is
// built once and read-only afterwards, so shapes are safe to share.
func ShapeOf(t ShapeType) *Shape {
	shapeTableOnce.Do(buildShapeTable)
	return shapeTable[t]
}

// OccupiedAt reports whether the canonical cell (x, y) is part of the
// shape. Coordinates outside the shape's bounding box are not occupied.
func (s *Shape) OccupiedAt(x, y int) bool {
	if x < 0 || x >= s.Width || y < 0 || y >= s.Height {
		return false
	}
	return s.grid[y][x]
}

// Cells returns the relative occupied coordinates of the canonical
// (vertical) layout. The returned slice must not be modified.
func (s *Shape) Cells() []Point {
	return s.cells
}

// Battleship is a shape placed on the board at (X, Y) with a rotation.
// Equality is structural on the four identifying fields.
type Battleship struct {
	Shape    ShapeType `json:"shape"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Rotation Rotation  `json:"rotation"`

	cells []Point // precomputed absolute occupied coordinates
}

// NewBattleship places a shape and precomputes its absolute cells.
func NewBattleship(t ShapeType, x, y int, rotation Rotation) Battleship {
	b := Battleship{Shape: t, X: x, Y: y, Rotation: rotation}
	b.cells = b.computeCells()
	return b
}

func (b *Battleship) computeCells() []Point {
	shape := ShapeOf(b.Shape)
	cells := make([]Point, 0, shape.CellCount)
	for _, c := range shape.Cells() {
		cx, cy := c.X, c.Y
		if b.Rotation == RotationHorizontal {
			cx, cy = cy, cx
		}
		cells = append(cells, Point{X: b.X + cx, Y: b.Y + cy})
	}
	return cells
}

// Cells returns the absolute occupied coordinates. The slice is
// computed lazily for battleships not built via NewBattleship (e.g.
// decoded from JSON) and must not be modified.
func (b *Battleship) Cells() []Point {
	if b.cells == nil {
		b.cells = b.computeCells()
	}
	return b.cells
}

// Dimensions returns the bounding box of the placed battleship,
// swapping width and height on horizontal rotation.
func (b *Battleship) Dimensions() (w, h int) {
	shape := ShapeOf(b.Shape)
	if b.Rotation == RotationHorizontal {
		return shape.Height, shape.Width
	}
	return shape.Width, shape.Height
}

// Contains reports whether the battleship occupies the absolute cell
// (x, y).
func (b *Battleship) Contains(x, y int) bool {
	sx, sy := x-b.X, y-b.Y
	if b.Rotation == RotationHorizontal {
		sx, sy = sy, sx
	}
	return ShapeOf(b.Shape).OccupiedAt(sx, sy)
}

// CellCount returns the number of occupied cells of the shape.
func (b *Battleship) CellCount() int {
	return ShapeOf(b.Shape).CellCount
}

// Equal reports structural equality on shape, position and rotation.
func (b *Battleship) Equal(other *Battleship) bool {
	return b.Shape == other.Shape && b.X == other.X && b.Y == other.Y && b.Rotation == other.Rotation
}

func (b Battleship) String() string {
	return fmt.Sprintf("%s@(%d,%d)/%s", b.Shape, b.X, b.Y, b.Rotation)
}
