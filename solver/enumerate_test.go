package solver

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
)

func TestIncompatTable(t *testing.T) {
	NewEnumerator(nil, nil) // forces table construction

	carrier := placementID(engine.ShapeCarrier, 0, 0, engine.RotationVertical)
	touching := placementID(engine.ShapePatrolBoat, 1, 0, engine.RotationVertical)
	apart := placementID(engine.ShapePatrolBoat, 5, 5, engine.RotationVertical)
	overlap := placementID(engine.ShapePatrolBoat, 0, 0, engine.RotationVertical)

	require.True(t, incompatible(carrier, touching), "touching placements must conflict")
	require.True(t, incompatible(carrier, overlap), "overlapping placements must conflict")
	require.False(t, incompatible(carrier, apart), "distant placements must not conflict")
	require.True(t, incompatible(touching, carrier), "the table must be symmetric")
}

// confirmAllBut pins every shape except the given ones in one corner
// region so the enumerator only has a small candidate space left.
func confirmAllBut(t *testing.T, belief *Belief, keep ...engine.ShapeType) {
	t.Helper()
	keepSet := map[engine.ShapeType]bool{}
	for _, k := range keep {
		keepSet[k] = true
	}
	placements := map[engine.ShapeType]engine.Battleship{
		engine.ShapeHelicarrier: engine.NewBattleship(engine.ShapeHelicarrier, 0, 0, engine.RotationVertical),
		engine.ShapeCarrier:     engine.NewBattleship(engine.ShapeCarrier, 5, 0, engine.RotationVertical),
		engine.ShapeBattleship:  engine.NewBattleship(engine.ShapeBattleship, 7, 0, engine.RotationVertical),
		engine.ShapeDestroyer:   engine.NewBattleship(engine.ShapeDestroyer, 9, 0, engine.RotationVertical),
		engine.ShapeSubmarine:   engine.NewBattleship(engine.ShapeSubmarine, 11, 0, engine.RotationVertical),
		engine.ShapePatrolBoat:  engine.NewBattleship(engine.ShapePatrolBoat, 5, 7, engine.RotationVertical),
	}
	for _, shapeType := range engine.ShapeTypes {
		if keepSet[shapeType] {
			continue
		}
		require.NoError(t, belief.ConfirmBattleship(placements[shapeType]))
	}
}

func TestRefreshExhaustiveHeat(t *testing.T) {
	belief := NewBelief()
	confirmAllBut(t, belief, engine.ShapePatrolBoat)

	enumerator := NewEnumerator(nil, rand.New(rand.NewSource(5)))
	require.NoError(t, enumerator.Refresh(belief))

	// Unfired confirmed ship cells stay pinned at the maximum.
	require.Equal(t, HeatmapMaximumValue, belief.Heat(0, 0))

	// Some open cell far from the confirmed fleet must be reachable by
	// the patrol boat and carry positive, finite heat.
	heat := belief.Heat(5, 11)
	require.Greater(t, heat, HeatmapNoValue)
	require.Less(t, heat, HeatmapMaximumValue)
}

func TestRefreshTargetModeDominatesHeat(t *testing.T) {
	belief := NewBelief()
	confirmAllBut(t, belief, engine.ShapePatrolBoat, engine.ShapeSubmarine)

	// A live hit in the open: (7, 10) was fired and is a ship cell.
	require.NoError(t, belief.UpdateFromResponse(&service.FireResponse{
		Grid: gridWith(map[engine.Point]byte{{X: 7, Y: 10}: engine.CharShip}),
	}))

	enumerator := NewEnumerator(nil, rand.New(rand.NewSource(5)))
	require.NoError(t, enumerator.Refresh(belief))

	targetMode, size := belief.TargetMode()
	require.True(t, targetMode, "a live hit must engage target mode")
	require.GreaterOrEqual(t, size, 2)

	// Cells that can complete the wounded ship must outrank every cell
	// that cannot.
	finisher := belief.Heat(7, 11)
	require.Greater(t, finisher, HeatmapNoValue)

	var bestElsewhere float64
	for x := 0; x < engine.BoardSize; x++ {
		for y := 0; y < engine.BoardSize; y++ {
			if belief.Original(x, y) != engine.CellUnknown {
				continue
			}
			dx, dy := x-7, y-10
			if dx >= -3 && dx <= 3 && dy >= -3 && dy <= 3 {
				continue // near the hit, may share target placements
			}
			if h := belief.Heat(x, y); h > bestElsewhere && h < HeatmapMaximumValue {
				bestElsewhere = h
			}
		}
	}
	require.Greater(t, finisher, bestElsewhere,
		"target-mode cells must dominate the rest of the heat-map")
}

// A pocket no remaining shape can reach is demoted to water once the
// heat-map shows no configuration covers it.
func TestRefreshDemotesUnreachableCells(t *testing.T) {
	belief := NewBelief()
	confirmAllBut(t, belief, engine.ShapePatrolBoat, engine.ShapeSubmarine)

	// Wall off (0, 11): its only neighbours become water.
	require.NoError(t, belief.UpdateFromResponse(&service.FireResponse{
		Grid: gridWith(map[engine.Point]byte{
			{X: 0, Y: 10}: engine.CharWater,
			{X: 1, Y: 10}: engine.CharWater,
			{X: 1, Y: 11}: engine.CharWater,
		}),
	}))

	enumerator := NewEnumerator(nil, rand.New(rand.NewSource(5)))
	require.NoError(t, enumerator.Refresh(belief))

	require.Equal(t, engine.CellWater, belief.Inferred(0, 11),
		"an unreachable pocket must be demoted to water")
}

// With a single unconfirmed shape the exhaustive count equals the
// number of candidate placements and each gets frequency one.
func TestExhaustiveCountMatchesCandidates(t *testing.T) {
	belief := NewBelief()
	confirmAllBut(t, belief, engine.ShapePatrolBoat)

	enumerator := NewEnumerator(nil, nil)
	shapes, candidates, err := enumerator.collectCandidates(belief)
	require.NoError(t, err)
	require.Equal(t, []engine.ShapeType{engine.ShapePatrolBoat}, shapes)
	require.NotEmpty(t, candidates[0])

	valid := countExhaustive(candidates)
	require.Equal(t, int64(len(candidates[0])), valid)
	for i := range candidates[0] {
		require.Equal(t, int64(1), candidates[0][i].frequency)
	}
}

func TestRefreshFailsOnImpossibleBelief(t *testing.T) {
	belief := NewBelief()
	confirmAllBut(t, belief, engine.ShapeCarrier)

	// Declare every remaining open cell water so the carrier fits
	// nowhere.
	for x := 0; x < engine.BoardSize; x++ {
		for y := 0; y < engine.BoardSize; y++ {
			if belief.inferred[x][y] == engine.CellUnknown {
				belief.inferred[x][y] = engine.CellWater
			}
		}
	}

	enumerator := NewEnumerator(nil, nil)
	require.ErrorIs(t, enumerator.Refresh(belief), ErrBeliefConflict)
}
