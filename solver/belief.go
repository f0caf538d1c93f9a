package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
)

const (
	// HeatmapNoValue marks a cell no valid configuration can cover.
	HeatmapNoValue = 0.0

	// HeatmapMaximumValue pins a known ship cell that has not been
	// fired at yet.
	HeatmapMaximumValue = math.MaxFloat64
)

var (
	// ErrBeliefConflict is fatal: the server grid contradicts a value
	// the belief already committed to.
	ErrBeliefConflict = errors.New("belief contradicts observed grid")

	// ErrDeduction is fatal: the propagator reached an inconsistent or
	// ambiguous state.
	ErrDeduction = errors.New("deduction failed")
)

// shapeSet is a bitmask of shape types. The zero value means "any
// shape still unconfirmed".
type shapeSet uint8

func (s shapeSet) has(t engine.ShapeType) bool { return s&(1<<uint(t)) != 0 }
func (s shapeSet) with(t engine.ShapeType) shapeSet {
	return s | 1<<uint(t)
}
func (s shapeSet) without(t engine.ShapeType) shapeSet {
	return s &^ (1 << uint(t))
}
func singleton(t engine.ShapeType) shapeSet { return 1 << uint(t) }

// Belief is the bot's view of one board: the monotone inferred grid,
// the last observed server grid, locally confirmed ships, per-cell
// shape restrictions and the heat-map.
type Belief struct {
	inferred [engine.BoardSize][engine.BoardSize]engine.Cell
	original [engine.BoardSize][engine.BoardSize]engine.Cell
	possible [engine.BoardSize][engine.BoardSize]shapeSet
	heat     [engine.BoardSize][engine.BoardSize]float64

	confirmed      [engine.BoardSize][engine.BoardSize]*engine.Battleship
	confirmedShape [engine.FleetSize]bool
	confirmedShips [engine.FleetSize]*engine.Battleship

	avengerGranted bool

	// refreshed by the enumerator
	targetMode      bool
	targetShapeSize int
}

// NewBelief returns an all-unknown belief for a fresh board.
func NewBelief() *Belief {
	return &Belief{}
}

// Inferred returns the bot's current knowledge of (x, y).
func (b *Belief) Inferred(x, y int) engine.Cell { return b.inferred[x][y] }

// Original returns the last observed server value of (x, y).
func (b *Belief) Original(x, y int) engine.Cell { return b.original[x][y] }

// Heat returns the heat value of (x, y).
func (b *Belief) Heat(x, y int) float64 { return b.heat[x][y] }

// TargetMode reports whether any candidate placement covers a live
// hit, and the largest cell count among such placements.
func (b *Belief) TargetMode() (bool, int) { return b.targetMode, b.targetShapeSize }

// DiscoveredCount returns how many cells the server has revealed.
func (b *Belief) DiscoveredCount() int {
	n := 0
	for x := 0; x < engine.BoardSize; x++ {
		for y := 0; y < engine.BoardSize; y++ {
			if b.original[x][y] != engine.CellUnknown {
				n++
			}
		}
	}
	return n
}

// unconfirmedSet returns the mask of all still-unconfirmed shapes.
func (b *Belief) unconfirmedSet() shapeSet {
	var s shapeSet
	for _, t := range engine.ShapeTypes {
		if !b.confirmedShape[t] {
			s = s.with(t)
		}
	}
	return s
}

// UpdateFromResponse merges a fire response into the belief. The
// inferred grid is monotone: a committed cell that disagrees with the
// server is a fatal conflict.
func (b *Belief) UpdateFromResponse(resp *service.FireResponse) error {
	if len(resp.Grid) != engine.BoardSize*engine.BoardSize {
		return fmt.Errorf("%w: grid length %d", ErrBeliefConflict, len(resp.Grid))
	}

	for i := 0; i < len(resp.Grid); i++ {
		x, y := i%engine.BoardSize, i/engine.BoardSize
		cell, err := engine.CellFromChar(resp.Grid[i])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBeliefConflict, err)
		}
		b.original[x][y] = cell
		if cell == engine.CellUnknown {
			continue
		}
		if current := b.inferred[x][y]; current != engine.CellUnknown && current != cell {
			return fmt.Errorf("%w: cell (%d, %d) inferred %v observed %v", ErrBeliefConflict, x, y, current, cell)
		}
		b.inferred[x][y] = cell
	}

	if resp.AvengerAvailable && !b.avengerGranted {
		b.avengerGranted = true
		if err := b.confirmHelicarrierFromOutline(); err != nil {
			return err
		}
	}
	return nil
}

// confirmHelicarrierFromOutline locates the just-completed helicarrier
// from its fully discovered outline and confirms it, which also forces
// the four interior gap cells to water.
func (b *Belief) confirmHelicarrierFromOutline() error {
	if b.confirmedShape[engine.ShapeHelicarrier] {
		return nil
	}
	for _, rotation := range []engine.Rotation{engine.RotationVertical, engine.RotationHorizontal} {
		for x := 0; x < engine.BoardSize; x++ {
			for y := 0; y < engine.BoardSize; y++ {
				ship := engine.NewBattleship(engine.ShapeHelicarrier, x, y, rotation)
				w, h := ship.Dimensions()
				if x+w > engine.BoardSize || y+h > engine.BoardSize {
					continue
				}
				complete := true
				for _, c := range ship.Cells() {
					if b.inferred[c.X][c.Y] != engine.CellShip {
						complete = false
						break
					}
				}
				if complete {
					return b.ConfirmBattleship(ship)
				}
			}
		}
	}
	return fmt.Errorf("%w: avenger granted but no completed helicarrier outline", ErrBeliefConflict)
}

// ConfirmBattleship commits a deduced placement: the shape is flagged,
// its cells pinned, and every unknown neighbour becomes water (no ship
// touches another).
func (b *Belief) ConfirmBattleship(ship engine.Battleship) error {
	if b.confirmedShape[ship.Shape] {
		return fmt.Errorf("%w: shape %s confirmed twice", ErrDeduction, ship.Shape)
	}
	b.confirmedShape[ship.Shape] = true
	stored := ship
	b.confirmedShips[ship.Shape] = &stored

	for _, c := range stored.Cells() {
		if b.inferred[c.X][c.Y] == engine.CellWater {
			return fmt.Errorf("%w: confirmed ship cell (%d, %d) is water", ErrBeliefConflict, c.X, c.Y)
		}
		b.inferred[c.X][c.Y] = engine.CellShip
		b.confirmed[c.X][c.Y] = &stored
		b.possible[c.X][c.Y] = singleton(ship.Shape)
		b.heat[c.X][c.Y] = HeatmapMaximumValue
	}

	for _, c := range stored.Cells() {
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				nx, ny := c.X+dx, c.Y+dy
				if !engine.InBounds(nx, ny) || stored.Contains(nx, ny) {
					continue
				}
				if b.inferred[nx][ny] == engine.CellUnknown {
					b.inferred[nx][ny] = engine.CellWater
					b.heat[nx][ny] = HeatmapNoValue
				}
			}
		}
	}
	return nil
}

// ApplyIronManHint incorporates an IRON_MAN hint: the cell belongs to
// the smallest non-destroyed ship. The cell becomes a known ship cell
// and the shape restrictions are re-projected across the grid.
func (b *Belief) ApplyIronManHint(x, y int) error {
	if b.inferred[x][y] == engine.CellWater {
		return fmt.Errorf("%w: hint cell (%d, %d) is inferred water", ErrBeliefConflict, x, y)
	}
	if b.confirmed[x][y] != nil {
		// Identity already deduced, the hint adds nothing.
		return nil
	}
	b.inferred[x][y] = engine.CellShip
	b.heat[x][y] = HeatmapMaximumValue

	// Shapes that could still be the smallest non-destroyed ship.
	smallest := 0
	for _, t := range engine.ShapeTypes {
		if b.confirmedShape[t] {
			continue
		}
		size := engine.ShapeOf(t).CellCount
		if smallest == 0 || size < smallest {
			smallest = size
		}
	}
	var restricted shapeSet
	for _, t := range engine.ShapeTypes {
		if !b.confirmedShape[t] && engine.ShapeOf(t).CellCount <= smallest {
			restricted = restricted.with(t)
		}
	}
	if restricted == 0 {
		return fmt.Errorf("%w: iron man hint with no unconfirmed shapes", ErrDeduction)
	}
	b.possible[x][y] = restricted

	return b.reprojectPossible(restricted, x, y)
}

// reprojectPossible removes each restricted shape from cells no
// placement of that shape covering the hint can reach.
func (b *Belief) reprojectPossible(restricted shapeSet, hintX, hintY int) error {
	for _, t := range engine.ShapeTypes {
		if !restricted.has(t) {
			continue
		}

		var reachable [engine.BoardSize][engine.BoardSize]bool
		for _, p := range b.placementsCovering(t, hintX, hintY) {
			for _, c := range p.Cells() {
				reachable[c.X][c.Y] = true
			}
		}

		for x := 0; x < engine.BoardSize; x++ {
			for y := 0; y < engine.BoardSize; y++ {
				if reachable[x][y] {
					continue
				}
				set := b.possible[x][y]
				if set == 0 {
					set = b.unconfirmedSet()
				}
				if !set.has(t) {
					continue
				}
				set = set.without(t)
				if set == 0 {
					// No shape can cover this cell at all.
					if b.inferred[x][y] == engine.CellShip {
						return fmt.Errorf("%w: ship cell (%d, %d) excluded by every shape", ErrBeliefConflict, x, y)
					}
					if b.inferred[x][y] == engine.CellUnknown {
						b.inferred[x][y] = engine.CellWater
						b.heat[x][y] = HeatmapNoValue
					}
					continue
				}
				b.possible[x][y] = set
			}
		}
	}
	return nil
}
