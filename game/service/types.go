package service

import "github.com/Electry/panaxeo-coding-arena-2023/game/engine"

const (
	// MaxAttempts caps how many boards a single token may start.
	MaxAttempts = 9999

	// MapsPerGame is the number of boards forming one full game.
	MapsPerGame = 200
)

// UserData holds the per-token counters persisted between requests.
type UserData struct {
	Attempts          int `json:"attempts"`
	LastMapID         int `json:"last_map_id"`
	RemainingMapCount int `json:"remaining_map_count_in_game"`
	BestScore         int `json:"best_score"`
	CurrentGameScore  int `json:"current_game_score"`
}

// NewUserData returns counters for a token's first game.
func NewUserData() *UserData {
	return &UserData{RemainingMapCount: MapsPerGame}
}

// FireResponse is the public snapshot returned for every game action.
// The grid string is row-major: index = y*12 + x.
type FireResponse struct {
	Grid             string `json:"grid"`
	Cell             string `json:"cell"`
	Result           bool   `json:"result"`
	AvengerAvailable bool   `json:"avengerAvailable"`
	MapID            int    `json:"mapId"`
	MapCount         int    `json:"mapCount"`
	MoveCount        int    `json:"moveCount"`
	Finished         bool   `json:"finished"`
}

// AvengerFireResponse extends FireResponse with the per-cell results of
// an avenger effect.
type AvengerFireResponse struct {
	FireResponse
	AvengerResult []AvengerResult `json:"avengerResult"`
}

// MapPoint is the wire form of a coordinate. Note the axis flip
// against the engine: X is the row (engine y) and Y is the column
// (engine x).
type MapPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// AvengerResult is the wire form of one avenger-touched cell.
type AvengerResult struct {
	MapPoint MapPoint `json:"mapPoint"`
	Hit      bool     `json:"hit"`
}

// WireAvengerResults converts engine avenger results to their wire
// form, applying the row/column flip.
func WireAvengerResults(results []engine.AvengerResult) []AvengerResult {
	out := make([]AvengerResult, 0, len(results))
	for _, r := range results {
		out = append(out, AvengerResult{
			MapPoint: MapPoint{X: r.Point.Y, Y: r.Point.X},
			Hit:      r.Hit,
		})
	}
	return out
}
