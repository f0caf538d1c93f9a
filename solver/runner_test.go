package solver

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/Electry/panaxeo-coding-arena-2023/api"
	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
	"github.com/Electry/panaxeo-coding-arena-2023/game/session"
	"github.com/Electry/panaxeo-coding-arena-2023/storage"
)

type singleBoard struct {
	build func() *engine.Board
}

func (s *singleBoard) Board(id int) (*engine.Board, bool) {
	return s.build(), true
}

func testFleet() *engine.Board {
	board := engine.NewBoard(1)
	board.Place(engine.NewBattleship(engine.ShapeHelicarrier, 0, 0, engine.RotationVertical))
	board.Place(engine.NewBattleship(engine.ShapeCarrier, 5, 0, engine.RotationVertical))
	board.Place(engine.NewBattleship(engine.ShapeBattleship, 7, 0, engine.RotationVertical))
	board.Place(engine.NewBattleship(engine.ShapeDestroyer, 9, 0, engine.RotationVertical))
	board.Place(engine.NewBattleship(engine.ShapeSubmarine, 11, 0, engine.RotationVertical))
	board.Place(engine.NewBattleship(engine.ShapePatrolBoat, 5, 7, engine.RotationVertical))
	return board
}

// End-to-end: the runner finishes a map through the real HTTP stack.
// The board is pre-fired down to the patrol boat's pocket so the
// enumeration stays exhaustive.
func TestRunnerFinishesMapOverHTTP(t *testing.T) {
	svc := service.NewGameService(
		session.NewStore(storage.NewMemoryStorage()),
		service.WithBoardProvider(&singleBoard{build: testFleet}),
	)
	server := httptest.NewServer(api.NewServer(svc))
	defer server.Close()

	// Reveal everything outside the patrol boat's hiding region.
	ctx := context.Background()
	for x := 0; x < engine.BoardSize; x++ {
		for y := 0; y < engine.BoardSize; y++ {
			if x >= 4 && x <= 6 && y >= 6 && y <= 9 {
				continue
			}
			_, err := svc.Fire(ctx, "tester", x, y)
			require.NoError(t, err)
		}
	}

	client := NewClient(server.URL, "tester")
	runner := NewRunner(client, nil, rand.New(rand.NewSource(17)), false)

	resp, err := client.Status(ctx)
	require.NoError(t, err)
	require.False(t, resp.Finished)
	require.True(t, resp.AvengerAvailable, "pre-firing the helicarrier should have granted the avenger")

	moves, last, err := runner.playMap(ctx, resp)
	require.NoError(t, err)
	require.True(t, last.Finished, "the runner must finish the map")
	require.Greater(t, moves, 0)
	require.LessOrEqual(t, moves, engine.BoardSize*engine.BoardSize)
	require.Equal(t, service.MapsPerGame-1, last.MapCount, "one map should be consumed")
}
