package solver

import (
	"fmt"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/Electry/panaxeo-coding-arena-2023/game/config"
	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
)

const (
	// exhaustiveLimit is the configuration count above which the
	// enumerator switches to Monte-Carlo sampling.
	exhaustiveLimit = 10_000_000

	// Monte-Carlo termination thresholds.
	minSampleAttempts = 1_000_000
	minAcceptedSample = 10_000
	maxSampleAttempts = 20_000_000

	// targetModeFactor dominates every other heat multiplier so that
	// wounded ships are finished first.
	targetModeFactor = 100.0

	heatScale = 1000.0
)

// candidate is one placement of an unconfirmed shape consistent with
// the current belief.
type candidate struct {
	ship       engine.Battleship
	id         int
	targetMode bool
	frequency  int64
}

// placement ids encode (shape, x, y, rotation) densely for the
// precomputed incompatibility table.
const placementIDs = engine.FleetSize * engine.BoardSize * engine.BoardSize * 2

func placementID(t engine.ShapeType, x, y int, rotation engine.Rotation) int {
	return ((int(t)*engine.BoardSize+x)*engine.BoardSize+y)*2 + int(rotation)
}

var (
	incompatTable []bool
	incompatOnce  sync.Once
)

// buildIncompatTable precomputes, over an empty 12x12 board, whether
// every pair of in-bounds placements of different shapes overlaps or
// violates the no-touch rule. The dense table removes per-pair
// geometry work from the enumeration hot loop.
func buildIncompatTable() {
	incompatTable = make([]bool, placementIDs*placementIDs)

	type entry struct {
		id    int
		shape engine.ShapeType
		mask  [engine.BoardSize][engine.BoardSize]bool // cells + 1-cell halo
		cells []engine.Point
	}

	var entries []entry
	for _, t := range engine.ShapeTypes {
		for _, rotation := range []engine.Rotation{engine.RotationVertical, engine.RotationHorizontal} {
			for x := 0; x < engine.BoardSize; x++ {
				for y := 0; y < engine.BoardSize; y++ {
					ship := engine.NewBattleship(t, x, y, rotation)
					w, h := ship.Dimensions()
					if x+w > engine.BoardSize || y+h > engine.BoardSize {
						continue
					}
					e := entry{id: placementID(t, x, y, rotation), shape: t, cells: ship.Cells()}
					for _, c := range e.cells {
						for dx := -1; dx <= 1; dx++ {
							for dy := -1; dy <= 1; dy++ {
								nx, ny := c.X+dx, c.Y+dy
								if engine.InBounds(nx, ny) {
									e.mask[nx][ny] = true
								}
							}
						}
					}
					entries = append(entries, e)
				}
			}
		}
	}

	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].shape == entries[j].shape {
				continue
			}
			conflict := false
			for _, c := range entries[j].cells {
				if entries[i].mask[c.X][c.Y] {
					conflict = true
					break
				}
			}
			if conflict {
				incompatTable[entries[i].id*placementIDs+entries[j].id] = true
				incompatTable[entries[j].id*placementIDs+entries[i].id] = true
			}
		}
	}
}

func incompatible(id1, id2 int) bool {
	return incompatTable[id1*placementIDs+id2]
}

// Enumerator refreshes the belief's heat-map by counting fleet
// configurations consistent with the observations.
type Enumerator struct {
	bias *config.Bias
	rng  *rand.Rand
}

// NewEnumerator builds an enumerator over the given bias tables. The
// shared incompatibility table is initialised on first use.
func NewEnumerator(bias *config.Bias, rng *rand.Rand) *Enumerator {
	incompatOnce.Do(buildIncompatTable)
	if bias == nil {
		bias = config.DefaultBias()
	}
	return &Enumerator{bias: bias, rng: rng}
}

// Refresh recomputes candidate placements, counts or samples valid
// configurations, and synthesizes the heat-map.
func (e *Enumerator) Refresh(b *Belief) error {
	shapes, candidates, err := e.collectCandidates(b)
	if err != nil {
		return err
	}
	if len(shapes) == 0 {
		// Whole fleet confirmed; nothing to enumerate.
		b.targetMode, b.targetShapeSize = false, 0
		return nil
	}

	total := int64(1)
	for _, list := range candidates {
		total *= int64(len(list))
		if total > exhaustiveLimit {
			break
		}
	}

	var valid int64
	if total <= exhaustiveLimit {
		valid = countExhaustive(candidates)
	} else {
		valid, err = e.countSampled(candidates)
		if err != nil {
			return err
		}
	}
	if valid == 0 {
		return fmt.Errorf("%w: no fleet configuration matches the belief", ErrBeliefConflict)
	}

	e.synthesizeHeat(b, shapes, candidates, valid)
	b.refreshTargetInfo(shapes, candidates)
	return nil
}

// collectCandidates lists, for every unconfirmed shape, the placements
// compatible with the belief, flagged with target mode when they cover
// a live hit.
func (e *Enumerator) collectCandidates(b *Belief) ([]engine.ShapeType, [][]candidate, error) {
	var shapes []engine.ShapeType
	var candidates [][]candidate

	for _, t := range engine.ShapeTypes {
		if b.confirmedShape[t] {
			continue
		}
		var list []candidate
		for _, rotation := range []engine.Rotation{engine.RotationVertical, engine.RotationHorizontal} {
			for x := 0; x < engine.BoardSize; x++ {
				for y := 0; y < engine.BoardSize; y++ {
					ship := engine.NewBattleship(t, x, y, rotation)
					if !b.compatible(&ship) {
						continue
					}
					c := candidate{ship: ship, id: placementID(t, x, y, rotation)}
					for _, cell := range ship.Cells() {
						if b.inferred[cell.X][cell.Y] == engine.CellShip {
							c.targetMode = true
							break
						}
					}
					list = append(list, c)
				}
			}
		}
		if len(list) == 0 {
			return nil, nil, fmt.Errorf("%w: no candidate placements for %s", ErrBeliefConflict, t)
		}
		shapes = append(shapes, t)
		candidates = append(candidates, list)
	}
	return shapes, candidates, nil
}

// countExhaustive runs a backtracking DFS over the unconfirmed shapes
// in reverse order, crediting per-placement frequencies at every valid
// leaf.
func countExhaustive(candidates [][]candidate) int64 {
	var valid int64
	chosen := make([]*candidate, 0, len(candidates))

	var descend func(level int)
	descend = func(level int) {
		if level < 0 {
			valid++
			for _, c := range chosen {
				c.frequency++
			}
			return
		}
		list := candidates[level]
		for i := range list {
			c := &list[i]
			ok := true
			for _, prev := range chosen {
				if incompatible(prev.id, c.id) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			chosen = append(chosen, c)
			descend(level - 1)
			chosen = chosen[:len(chosen)-1]
		}
	}
	descend(len(candidates) - 1)
	return valid
}

// countSampled draws one candidate per shape uniformly at random and
// discards samples with any incompatible pair. It keeps drawing until
// both the attempt and acceptance thresholds are met.
func (e *Enumerator) countSampled(candidates [][]candidate) (int64, error) {
	var attempts, accepted int64
	pick := make([]*candidate, len(candidates))

	for attempts < minSampleAttempts || accepted < minAcceptedSample {
		if attempts >= maxSampleAttempts {
			if accepted == 0 {
				return 0, fmt.Errorf("%w: sampling found no valid configuration", ErrBeliefConflict)
			}
			break
		}
		attempts++

		for i, list := range candidates {
			pick[i] = &list[e.intn(len(list))]
		}
		ok := true
	pairs:
		for i := 0; i < len(pick); i++ {
			for j := i + 1; j < len(pick); j++ {
				if incompatible(pick[i].id, pick[j].id) {
					ok = false
					break pairs
				}
			}
		}
		if !ok {
			continue
		}
		accepted++
		for _, c := range pick {
			c.frequency++
		}
	}
	return accepted, nil
}

func (e *Enumerator) intn(n int) int {
	if e.rng != nil {
		return e.rng.Intn(n)
	}
	return rand.Intn(n)
}

// synthesizeHeat turns per-placement frequencies into per-cell heat,
// applying the target-mode, shape, edge and cell biases, then demotes
// unreachable unknown cells to water.
func (e *Enumerator) synthesizeHeat(b *Belief, shapes []engine.ShapeType, candidates [][]candidate, valid int64) {
	var weight [engine.BoardSize][engine.BoardSize]float64

	for i, list := range candidates {
		t := shapes[i]
		for j := range list {
			c := &list[j]
			if c.frequency == 0 {
				continue
			}
			w := float64(c.frequency)
			if c.targetMode {
				w *= targetModeFactor
			}
			if c.ship.X == 0 && c.ship.Y != 0 && c.ship.Rotation == engine.RotationHorizontal {
				w *= e.bias.EdgeHorizontal
			}
			if c.ship.X != 0 && c.ship.Y == 0 && c.ship.Rotation == engine.RotationVertical {
				w *= e.bias.EdgeVertical
			}
			for _, cell := range c.ship.Cells() {
				weight[cell.X][cell.Y] += w * e.bias.Shape(t, cell.X, cell.Y)
			}
		}
	}

	for x := 0; x < engine.BoardSize; x++ {
		for y := 0; y < engine.BoardSize; y++ {
			if b.original[x][y] != engine.CellUnknown {
				continue // already fired, heat no longer matters
			}
			if b.inferred[x][y] == engine.CellShip {
				b.heat[x][y] = HeatmapMaximumValue
				continue
			}
			b.heat[x][y] = weight[x][y] * heatScale / float64(valid) * e.bias.Cell(x, y)
		}
	}

	for x := 0; x < engine.BoardSize; x++ {
		for y := 0; y < engine.BoardSize; y++ {
			if b.inferred[x][y] == engine.CellUnknown && b.heat[x][y] == HeatmapNoValue {
				b.inferred[x][y] = engine.CellWater
			}
		}
	}
}

// refreshTargetInfo records whether any candidate covers a live hit
// and the largest such shape, for the avenger decision.
func (b *Belief) refreshTargetInfo(shapes []engine.ShapeType, candidates [][]candidate) {
	b.targetMode = false
	b.targetShapeSize = 0
	for i, list := range candidates {
		size := engine.ShapeOf(shapes[i]).CellCount
		for j := range list {
			if list[j].targetMode && list[j].frequency > 0 {
				b.targetMode = true
				if size > b.targetShapeSize {
					b.targetShapeSize = size
				}
			}
		}
	}
}
