package engine

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// PlaceRandom generates a board with the full fleet placed uniformly
// at random over the valid (x, y, rotation) tuples of each shape.
// Shapes are placed in descending size order so the helicarrier, the
// hardest to fit, goes first. The distribution is uniform per placed
// shape, not over whole boards.
func PlaceRandom(id int, rng *rand.Rand) (*Board, error) {
	board := NewBoard(id)
	for _, shapeType := range ShapeTypes {
		candidates := validPlacements(board, shapeType)
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: %s on board %d", ErrNoPlacement, shapeType, id)
		}
		var pick int
		if rng != nil {
			pick = rng.Intn(len(candidates))
		} else {
			pick = rand.Intn(len(candidates))
		}
		board.Place(candidates[pick])
	}
	return board, nil
}

// validPlacements enumerates every battleship of the given shape that
// survives CanPlace on the board.
func validPlacements(board *Board, shapeType ShapeType) []Battleship {
	var out []Battleship
	for _, rotation := range []Rotation{RotationVertical, RotationHorizontal} {
		for x := 0; x < board.Width; x++ {
			for y := 0; y < board.Height; y++ {
				ship := NewBattleship(shapeType, x, y, rotation)
				if board.CanPlace(&ship) {
					out = append(out, ship)
				}
			}
		}
	}
	return out
}
