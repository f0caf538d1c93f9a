package validate

import (
	"encoding/json"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
)

func TestBoardAcceptsGeneratedBoard(t *testing.T) {
	board, err := engine.PlaceRandom(1, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(board)
	if err != nil {
		t.Fatal(err)
	}

	result := Board(data)
	if !result.Valid {
		t.Errorf("generated board should validate, got %v", result.Errors)
	}
	if result.Err() != nil {
		t.Errorf("valid result should fold to nil, got %v", result.Err())
	}
}

func TestBoardRejectsMalformedBlobs(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"not json", `{{`},
		{"wrong dimensions", `{"id":1,"width":10,"height":10,"battleships":[],"discovered":[]}`},
		{"missing ships", `{"id":1,"width":12,"height":12,"battleships":[],"discovered":[]}`},
		{"unknown shape", `{"id":1,"width":12,"height":12,"battleships":[
			{"shape":"helicarrier","x":0,"y":0,"rotation":"vertical"},
			{"shape":"carrier","x":5,"y":0,"rotation":"vertical"},
			{"shape":"battleship","x":7,"y":0,"rotation":"vertical"},
			{"shape":"destroyer","x":9,"y":0,"rotation":"vertical"},
			{"shape":"submarine","x":11,"y":0,"rotation":"vertical"},
			{"shape":"dinghy","x":5,"y":7,"rotation":"vertical"}],"discovered":[]}`},
		{"duplicate shape", `{"id":1,"width":12,"height":12,"battleships":[
			{"shape":"helicarrier","x":0,"y":0,"rotation":"vertical"},
			{"shape":"carrier","x":5,"y":0,"rotation":"vertical"},
			{"shape":"battleship","x":7,"y":0,"rotation":"vertical"},
			{"shape":"destroyer","x":9,"y":0,"rotation":"vertical"},
			{"shape":"submarine","x":11,"y":0,"rotation":"vertical"},
			{"shape":"submarine","x":5,"y":7,"rotation":"vertical"}],"discovered":[]}`},
		{"bad rotation", `{"id":1,"width":12,"height":12,"battleships":[
			{"shape":"helicarrier","x":0,"y":0,"rotation":"diagonal"},
			{"shape":"carrier","x":5,"y":0,"rotation":"vertical"},
			{"shape":"battleship","x":7,"y":0,"rotation":"vertical"},
			{"shape":"destroyer","x":9,"y":0,"rotation":"vertical"},
			{"shape":"submarine","x":11,"y":0,"rotation":"vertical"},
			{"shape":"patrol_boat","x":5,"y":7,"rotation":"vertical"}],"discovered":[]}`},
		{"discovered out of bounds", `{"id":1,"width":12,"height":12,"battleships":[
			{"shape":"helicarrier","x":0,"y":0,"rotation":"vertical"},
			{"shape":"carrier","x":5,"y":0,"rotation":"vertical"},
			{"shape":"battleship","x":7,"y":0,"rotation":"vertical"},
			{"shape":"destroyer","x":9,"y":0,"rotation":"vertical"},
			{"shape":"submarine","x":11,"y":0,"rotation":"vertical"},
			{"shape":"patrol_boat","x":5,"y":7,"rotation":"vertical"}],"discovered":[[12,0]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Board([]byte(tt.blob))
			if result.Valid {
				t.Error("blob should be rejected")
			}
			if result.Err() == nil {
				t.Error("invalid result should fold to an error")
			}
		})
	}
}

func TestUserValidation(t *testing.T) {
	good := `{"attempts":1,"last_map_id":1,"remaining_map_count_in_game":200,"best_score":0,"current_game_score":0}`
	if result := User([]byte(good)); !result.Valid {
		t.Errorf("good user blob rejected: %v", result.Errors)
	}

	for name, blob := range map[string]string{
		"not json":           `]`,
		"negative attempts":  `{"attempts":-1}`,
		"negative remaining": `{"attempts":1,"remaining_map_count_in_game":-5}`,
		"negative score":     `{"attempts":1,"current_game_score":-1}`,
	} {
		t.Run(name, func(t *testing.T) {
			if result := User([]byte(blob)); result.Valid {
				t.Error("blob should be rejected")
			}
		})
	}
}
