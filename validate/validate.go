// Package validate checks persisted session blobs before they are
// trusted by the engine. A malformed blob is a data error, never a
// silent recovery.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
)

var ErrDataFormat = errors.New("malformed persisted data")

// Result captures the outcome of validating a single blob. If Valid is
// false, Errors accumulates everything that was found wrong.
type Result struct {
	Valid  bool
	Errors []string
}

func (r *Result) addf(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Err folds the result into a single wrapped ErrDataFormat, or nil.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrDataFormat, r.Errors)
}

type boardBlob struct {
	ID               int  `json:"id"`
	Width            int  `json:"width"`
	Height           int  `json:"height"`
	MoveCount        int  `json:"move_count"`
	AvengerAvailable bool `json:"avenger_available"`
	Battleships      []struct {
		Shape    string `json:"shape"`
		X        int    `json:"x"`
		Y        int    `json:"y"`
		Rotation string `json:"rotation"`
	} `json:"battleships"`
	Discovered [][2]int `json:"discovered"`
}

// Board validates the persisted form of a board: structure, fleet
// composition, bounds, and the move counter's range. The move count is
// not compared with the discovered cells, since avenger reveals
// discover cells without counting moves.
func Board(data []byte) Result {
	result := Result{Valid: true}

	var blob boardBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		result.addf("invalid JSON: %v", err)
		return result
	}

	if blob.Width != engine.BoardSize || blob.Height != engine.BoardSize {
		result.addf("unsupported dimensions %dx%d", blob.Width, blob.Height)
	}
	if len(blob.Battleships) != engine.FleetSize {
		result.addf("expected %d battleships, found %d", engine.FleetSize, len(blob.Battleships))
	}

	seen := make(map[engine.ShapeType]bool)
	for _, ship := range blob.Battleships {
		shapeType, err := engine.ParseShapeType(ship.Shape)
		if err != nil {
			result.addf("battleship shape: %v", err)
			continue
		}
		if seen[shapeType] {
			result.addf("duplicate battleship shape %s", shapeType)
		}
		seen[shapeType] = true

		if ship.Rotation != "vertical" && ship.Rotation != "horizontal" {
			result.addf("invalid rotation %q", ship.Rotation)
		}
		if !engine.InBounds(ship.X, ship.Y) {
			result.addf("battleship %s out of bounds at (%d, %d)", shapeType, ship.X, ship.Y)
		}
	}

	for _, p := range blob.Discovered {
		if !engine.InBounds(p[0], p[1]) {
			result.addf("discovered cell out of bounds at (%d, %d)", p[0], p[1])
		}
	}
	if blob.MoveCount < 0 || blob.MoveCount > engine.BoardSize*engine.BoardSize {
		result.addf("move count %d out of range", blob.MoveCount)
	}

	return result
}

type userBlob struct {
	Attempts          int `json:"attempts"`
	LastMapID         int `json:"last_map_id"`
	RemainingMapCount int `json:"remaining_map_count_in_game"`
	BestScore         int `json:"best_score"`
	CurrentGameScore  int `json:"current_game_score"`
}

// User validates the persisted form of the per-token counters.
func User(data []byte) Result {
	result := Result{Valid: true}

	var blob userBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		result.addf("invalid JSON: %v", err)
		return result
	}

	if blob.Attempts < 0 {
		result.addf("negative attempts %d", blob.Attempts)
	}
	if blob.RemainingMapCount < 0 {
		result.addf("negative remaining map count %d", blob.RemainingMapCount)
	}
	if blob.BestScore < 0 || blob.CurrentGameScore < 0 {
		result.addf("negative score")
	}

	return result
}
