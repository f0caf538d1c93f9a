package engine

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/rand"
)

// Board is the authoritative state of one 12x12 map: the placed fleet,
// which cells have been discovered, the move counter and the avenger
// flag.
type Board struct {
	ID     int
	Width  int
	Height int
	Ships  []Battleship

	discovered [BoardSize][BoardSize]bool
	grid       [BoardSize][BoardSize]int8 // index into Ships, -1 for water

	MoveCount        int
	AvengerAvailable bool
}

// NewBoard returns an empty board with no ships placed.
func NewBoard(id int) *Board {
	b := &Board{
		ID:     id,
		Width:  BoardSize,
		Height: BoardSize,
	}
	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			b.grid[x][y] = -1
		}
	}
	return b
}

// CanPlace reports whether the battleship fits on the board without
// leaving bounds and without touching any already-placed ship, not
// even diagonally.
func (b *Board) CanPlace(ship *Battleship) bool {
	w, h := ship.Dimensions()
	if ship.X < 0 || ship.Y < 0 || ship.X+w > b.Width || ship.Y+h > b.Height {
		return false
	}
	for _, c := range ship.Cells() {
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				nx, ny := c.X+dx, c.Y+dy
				if !InBounds(nx, ny) {
					continue
				}
				if b.grid[nx][ny] >= 0 {
					return false
				}
			}
		}
	}
	return true
}

// Place records the battleship and stamps its cells onto the grid.
// The caller must have verified the placement with CanPlace.
func (b *Board) Place(ship Battleship) {
	idx := int8(len(b.Ships))
	b.Ships = append(b.Ships, ship)
	for _, c := range b.Ships[idx].Cells() {
		b.grid[c.X][c.Y] = idx
	}
}

// ShipAt returns the battleship occupying (x, y), or nil for water.
func (b *Board) ShipAt(x, y int) *Battleship {
	idx := b.grid[x][y]
	if idx < 0 {
		return nil
	}
	return &b.Ships[idx]
}

// CellAt returns the true content of (x, y), ignoring discovery.
func (b *Board) CellAt(x, y int) Cell {
	if b.grid[x][y] >= 0 {
		return CellShip
	}
	return CellWater
}

// Discovered reports whether (x, y) has been revealed.
func (b *Board) Discovered(x, y int) bool {
	return b.discovered[x][y]
}

// Fire discovers the cell (x, y). Firing at an already-discovered cell
// returns its revealed value without counting a move. Completing the
// helicarrier grants the avenger.
func (b *Board) Fire(x, y int) (Cell, error) {
	if !InBounds(x, y) {
		return CellUnknown, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}
	if b.discovered[x][y] {
		return b.CellAt(x, y), nil
	}

	b.discovered[x][y] = true
	b.MoveCount++

	if ship := b.ShipAt(x, y); ship != nil && ship.Shape == ShapeHelicarrier && b.ShipDestroyed(ship) {
		// This fire is the one that completed the helicarrier: the cell
		// was undiscovered before it.
		b.AvengerAvailable = true
	}
	return b.CellAt(x, y), nil
}

// FireAvenger discovers (x, y) and applies the avenger effect. The
// avenger is consumed even when its effect turns out to be redundant.
func (b *Board) FireAvenger(x, y int, avenger Avenger) (Cell, []AvengerResult, error) {
	if !InBounds(x, y) {
		return CellUnknown, nil, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}
	if !b.AvengerAvailable {
		return CellUnknown, nil, ErrAvengerUnavailable
	}
	b.AvengerAvailable = false

	cell, err := b.Fire(x, y)
	if err != nil {
		return CellUnknown, nil, err
	}

	switch avenger {
	case AvengerThor:
		return cell, b.thor(), nil
	case AvengerIronMan:
		return cell, b.ironMan(), nil
	case AvengerHulk:
		return cell, b.hulk(x, y), nil
	default:
		return cell, nil, fmt.Errorf("%w: %d", ErrUnknownAvenger, avenger)
	}
}

// thor reveals up to ThorReveals currently undiscovered cells, chosen
// uniformly at random without replacement. The reveals do not count as
// moves.
func (b *Board) thor() []AvengerResult {
	var pool []Point
	for x := 0; x < b.Width; x++ {
		for y := 0; y < b.Height; y++ {
			if !b.discovered[x][y] {
				pool = append(pool, Point{X: x, Y: y})
			}
		}
	}
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	n := ThorReveals
	if n > len(pool) {
		n = len(pool)
	}
	results := make([]AvengerResult, 0, n)
	for _, p := range pool[:n] {
		b.discovered[p.X][p.Y] = true
		results = append(results, AvengerResult{
			Point: p,
			Hit:   b.CellAt(p.X, p.Y) == CellShip,
		})
	}
	return results
}

// ironMan hints one undiscovered cell of the smallest non-destroyed
// battleship without revealing it. Ties on size resolve to the ship
// placed first.
func (b *Board) ironMan() []AvengerResult {
	var target *Battleship
	for i := range b.Ships {
		ship := &b.Ships[i]
		if b.ShipDestroyed(ship) {
			continue
		}
		if target == nil || ship.CellCount() < target.CellCount() {
			target = ship
		}
	}
	if target == nil {
		return nil
	}

	var pool []Point
	for _, c := range target.Cells() {
		if !b.discovered[c.X][c.Y] {
			pool = append(pool, c)
		}
	}
	hint := pool[rand.Intn(len(pool))]
	return []AvengerResult{{Point: hint, Hit: true}}
}

// hulk destroys the battleship under (x, y), revealing every one of
// its cells. On water it does nothing beyond the base shot.
func (b *Board) hulk(x, y int) []AvengerResult {
	ship := b.ShipAt(x, y)
	if ship == nil {
		return nil
	}
	results := make([]AvengerResult, 0, ship.CellCount())
	for _, c := range ship.Cells() {
		b.discovered[c.X][c.Y] = true
		results = append(results, AvengerResult{Point: c, Hit: true})
	}
	return results
}

// ShipDestroyed reports whether every cell of the ship is discovered.
func (b *Board) ShipDestroyed(ship *Battleship) bool {
	for _, c := range ship.Cells() {
		if !b.discovered[c.X][c.Y] {
			return false
		}
	}
	return true
}

// AllDiscovered reports whether every ship cell of every placed
// battleship has been discovered, i.e. the map is complete.
func (b *Board) AllDiscovered() bool {
	for i := range b.Ships {
		if !b.ShipDestroyed(&b.Ships[i]) {
			return false
		}
	}
	return true
}

// DiscoveredCount returns the number of revealed cells.
func (b *Board) DiscoveredCount() int {
	n := 0
	for x := 0; x < b.Width; x++ {
		for y := 0; y < b.Height; y++ {
			if b.discovered[x][y] {
				n++
			}
		}
	}
	return n
}

// GridString renders the observer view of the board as a row-major
// string: index = y*Width + x.
func (b *Board) GridString() string {
	buf := make([]byte, b.Width*b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			ch := byte(CharUnknown)
			if b.discovered[x][y] {
				ch = byte(CharWater)
				if b.grid[x][y] >= 0 {
					ch = byte(CharShip)
				}
			}
			buf[y*b.Width+x] = ch
		}
	}
	return string(buf)
}

// boardJSON is the persisted form of a board.
type boardJSON struct {
	ID               int          `json:"id"`
	Width            int          `json:"width"`
	Height           int          `json:"height"`
	Battleships      []Battleship `json:"battleships"`
	Discovered       [][2]int     `json:"discovered"`
	MoveCount        int          `json:"move_count"`
	AvengerAvailable bool         `json:"avenger_available"`
}

// MarshalJSON encodes the board into its persisted form.
func (b *Board) MarshalJSON() ([]byte, error) {
	out := boardJSON{
		ID:               b.ID,
		Width:            b.Width,
		Height:           b.Height,
		Battleships:      b.Ships,
		Discovered:       [][2]int{},
		MoveCount:        b.MoveCount,
		AvengerAvailable: b.AvengerAvailable,
	}
	for x := 0; x < b.Width; x++ {
		for y := 0; y < b.Height; y++ {
			if b.discovered[x][y] {
				out.Discovered = append(out.Discovered, [2]int{x, y})
			}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a board from its persisted form, rebuilding
// the ship grid from the battleship list.
func (b *Board) UnmarshalJSON(data []byte) error {
	var in boardJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Width != BoardSize || in.Height != BoardSize {
		return fmt.Errorf("unsupported board dimensions %dx%d", in.Width, in.Height)
	}

	restored := NewBoard(in.ID)
	for _, ship := range in.Battleships {
		ship := NewBattleship(ship.Shape, ship.X, ship.Y, ship.Rotation)
		if !restored.CanPlace(&ship) {
			return fmt.Errorf("invalid persisted placement %s", ship)
		}
		restored.Place(ship)
	}
	for _, p := range in.Discovered {
		x, y := p[0], p[1]
		if !InBounds(x, y) {
			return fmt.Errorf("%w: discovered cell (%d, %d)", ErrOutOfBounds, x, y)
		}
		restored.discovered[x][y] = true
	}
	restored.MoveCount = in.MoveCount
	restored.AvengerAvailable = in.AvengerAvailable

	*b = *restored
	return nil
}
