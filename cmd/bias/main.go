// Command bias computes the per-shape and per-cell bias grids consumed
// by the solver's heat-map. It generates a large batch of random
// placements, accumulates per-cell occupancy frequencies for each
// shape, and normalizes them against the uniform expectation so a
// value above 1 marks a cell the placement generator favors.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/rand"

	"github.com/Electry/panaxeo-coding-arena-2023/game/config"
	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
)

var (
	boards = flag.Int("boards", 100000, "number of random boards to generate")
	seed   = flag.Uint64("seed", 0, "RNG seed (0 picks one from the clock)")
	out    = flag.String("out", "configs/bias.json", "output file")
)

func main() {
	flag.Parse()

	s := *seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(s))

	fmt.Printf("Generating %d boards (seed %d)...\n", *boards, s)

	var counts [engine.FleetSize][engine.BoardSize][engine.BoardSize]int64
	for i := 0; i < *boards; i++ {
		board, err := engine.PlaceRandom(i, rng)
		if err != nil {
			fmt.Fprintf(os.Stderr, "placement failed: %v\n", err)
			os.Exit(1)
		}
		for _, ship := range board.Ships {
			for _, c := range ship.Cells() {
				counts[ship.Shape][c.X][c.Y]++
			}
		}
	}

	bias := config.DefaultBias()
	bias.ShapeBias = make(map[string][][]float64, engine.FleetSize)
	bias.CellBias = newGrid()

	var total [engine.BoardSize][engine.BoardSize]int64
	for _, t := range engine.ShapeTypes {
		grid := newGrid()
		// Uniform expectation: the shape's cells spread evenly over
		// the board.
		expected := float64(engine.ShapeOf(t).CellCount) * float64(*boards) /
			float64(engine.BoardSize*engine.BoardSize)
		for x := 0; x < engine.BoardSize; x++ {
			for y := 0; y < engine.BoardSize; y++ {
				grid[y][x] = float64(counts[t][x][y]) / expected
				total[x][y] += counts[t][x][y]
			}
		}
		bias.ShapeBias[t.String()] = grid
	}

	expectedTotal := float64(engine.FleetCells) * float64(*boards) /
		float64(engine.BoardSize*engine.BoardSize)
	for x := 0; x < engine.BoardSize; x++ {
		for y := 0; y < engine.BoardSize; y++ {
			bias.CellBias[y][x] = float64(total[x][y]) / expectedTotal
		}
	}

	data, err := json.MarshalIndent(bias, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal failed: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}

func newGrid() [][]float64 {
	grid := make([][]float64, engine.BoardSize)
	for y := range grid {
		grid[y] = make([]float64, engine.BoardSize)
	}
	return grid
}
