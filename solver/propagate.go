package solver

import (
	"fmt"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
)

// compatible reports whether the placement can coexist with the
// current belief: its ship cells avoid inferred water and foreign
// confirmations, its shape passes every covered cell's restriction,
// its bounding-box water cells avoid inferred ship cells, and it does
// not touch any inferred ship cell outside itself.
func (b *Belief) compatible(ship *engine.Battleship) bool {
	w, h := ship.Dimensions()
	if ship.X < 0 || ship.Y < 0 || ship.X+w > engine.BoardSize || ship.Y+h > engine.BoardSize {
		return false
	}
	if b.confirmedShape[ship.Shape] && !ship.Equal(b.confirmedShips[ship.Shape]) {
		return false
	}

	for _, c := range ship.Cells() {
		if b.inferred[c.X][c.Y] == engine.CellWater {
			return false
		}
		if confirmed := b.confirmed[c.X][c.Y]; confirmed != nil && !ship.Equal(confirmed) {
			return false
		}
		if set := b.possible[c.X][c.Y]; set != 0 && !set.has(ship.Shape) {
			return false
		}
	}

	// The shape's own water cells may not overlay a known ship cell.
	for x := ship.X; x < ship.X+w; x++ {
		for y := ship.Y; y < ship.Y+h; y++ {
			if !ship.Contains(x, y) && b.inferred[x][y] == engine.CellShip {
				return false
			}
		}
	}

	// No-touch against known ship cells that are not part of this
	// very placement.
	for _, c := range ship.Cells() {
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				nx, ny := c.X+dx, c.Y+dy
				if !engine.InBounds(nx, ny) || ship.Contains(nx, ny) {
					continue
				}
				if b.inferred[nx][ny] == engine.CellShip {
					return false
				}
			}
		}
	}
	return true
}

// placementsCovering enumerates every compatible placement of the
// shape that covers (x, y) with a ship cell.
func (b *Belief) placementsCovering(t engine.ShapeType, x, y int) []engine.Battleship {
	var out []engine.Battleship
	shape := engine.ShapeOf(t)
	for _, rotation := range []engine.Rotation{engine.RotationVertical, engine.RotationHorizontal} {
		for _, rel := range shape.Cells() {
			cx, cy := rel.X, rel.Y
			if rotation == engine.RotationHorizontal {
				cx, cy = cy, cx
			}
			ship := engine.NewBattleship(t, x-cx, y-cy, rotation)
			if b.compatible(&ship) {
				out = append(out, ship)
			}
		}
	}
	return out
}

// Propagate runs the deduction rules to fixpoint: every unconfirmed
// known-ship cell is examined, and any confirmation restarts the pass
// because freshly inferred water can unlock further deductions.
func (b *Belief) Propagate() error {
	for {
		confirmed, err := b.propagateOnce()
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}
}

func (b *Belief) propagateOnce() (bool, error) {
	for x := 0; x < engine.BoardSize; x++ {
		for y := 0; y < engine.BoardSize; y++ {
			if b.inferred[x][y] != engine.CellShip || b.confirmed[x][y] != nil {
				continue
			}
			confirmed, err := b.deduceAt(x, y)
			if err != nil {
				return false, err
			}
			if confirmed {
				return true, nil
			}
		}
	}
	return false, nil
}

// deduceAt applies the unique-shape and unique-unknown-free rules to a
// known ship cell without a confirmed identity.
func (b *Belief) deduceAt(x, y int) (bool, error) {
	candidates := b.possible[x][y]
	if candidates == 0 {
		candidates = b.unconfirmedSet()
	}

	valid := make(map[engine.ShapeType][]engine.Battleship)
	for _, t := range engine.ShapeTypes {
		if !candidates.has(t) {
			continue
		}
		if placements := b.placementsCovering(t, x, y); len(placements) > 0 {
			valid[t] = placements
		}
	}
	if len(valid) == 0 {
		return false, fmt.Errorf("%w: ship cell (%d, %d) fits no shape", ErrBeliefConflict, x, y)
	}

	if chosen, ok, err := b.uniqueShape(valid); err != nil {
		return false, err
	} else if ok {
		if placements := valid[chosen]; len(placements) == 1 {
			if err := b.ConfirmBattleship(placements[0]); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	return b.uniqueUnknownFree(x, y)
}

// uniqueShape resolves the candidate shape when only one fits, or when
// exactly the geometry-sharing submarine/destroyer pair fits and one
// of them is already confirmed elsewhere.
func (b *Belief) uniqueShape(valid map[engine.ShapeType][]engine.Battleship) (engine.ShapeType, bool, error) {
	if len(valid) == 1 {
		for t := range valid {
			return t, true, nil
		}
	}
	if len(valid) == 2 {
		_, sub := valid[engine.ShapeSubmarine]
		_, dest := valid[engine.ShapeDestroyer]
		if sub && dest {
			subConfirmed := b.confirmedShape[engine.ShapeSubmarine]
			destConfirmed := b.confirmedShape[engine.ShapeDestroyer]
			switch {
			case subConfirmed && !destConfirmed:
				return engine.ShapeDestroyer, true, nil
			case destConfirmed && !subConfirmed:
				return engine.ShapeSubmarine, true, nil
			case !subConfirmed && !destConfirmed:
				// The two shapes are indistinguishable here; neither
				// can be committed yet.
				return 0, false, nil
			default:
				return 0, false, fmt.Errorf("%w: both 3-cell shapes already confirmed", ErrDeduction)
			}
		}
	}
	return 0, false, nil
}

// uniqueUnknownFree confirms the largest unconfirmed shape when it has
// exactly one placement covering (x, y) whose every ship cell lies on
// an already-known ship cell.
func (b *Belief) uniqueUnknownFree(x, y int) (bool, error) {
	var largest engine.ShapeType
	found := false
	for _, t := range engine.ShapeTypes {
		if !b.confirmedShape[t] {
			largest = t
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	var match *engine.Battleship
	for _, p := range b.placementsCovering(largest, x, y) {
		unknownFree := true
		for _, c := range p.Cells() {
			if b.inferred[c.X][c.Y] != engine.CellShip {
				unknownFree = false
				break
			}
		}
		if !unknownFree {
			continue
		}
		if match != nil {
			return false, nil // more than one, no deduction
		}
		p := p
		match = &p
	}
	if match == nil {
		return false, nil
	}
	if err := b.ConfirmBattleship(*match); err != nil {
		return false, err
	}
	return true, nil
}
