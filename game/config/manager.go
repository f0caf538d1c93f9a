// Package config loads the tunable data files shared by the server and
// the solver: the offline-computed bias grids driving the heat-map, and
// pre-recorded reference boards that replace random placement when
// present.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
)

var (
	ErrBiasNotFound = errors.New("bias file not found")

	// Default edge multipliers, derived offline from reference games.
	DefaultEdgeHorizontal = 10.91 / 2
	DefaultEdgeVertical   = 7.83 / 2
)

const (
	biasFileName  = "bias.json"
	boardFilePref = "map_"
	boardFileSuf  = ".json"
)

// Bias holds the scalar multipliers applied during heat-map synthesis.
// A zero-value grid entry is treated as the neutral multiplier 1.
type Bias struct {
	CellBias       [][]float64            `json:"cell_bias"`
	ShapeBias      map[string][][]float64 `json:"shape_bias"`
	EdgeHorizontal float64                `json:"edge_horizontal"`
	EdgeVertical   float64                `json:"edge_vertical"`
}

// DefaultBias returns neutral grids with the built-in edge constants.
func DefaultBias() *Bias {
	return &Bias{
		EdgeHorizontal: DefaultEdgeHorizontal,
		EdgeVertical:   DefaultEdgeVertical,
	}
}

// Cell returns the per-cell multiplier at (x, y).
func (b *Bias) Cell(x, y int) float64 {
	return gridValue(b.CellBias, x, y)
}

// Shape returns the per-shape multiplier at (x, y).
func (b *Bias) Shape(t engine.ShapeType, x, y int) float64 {
	if b.ShapeBias == nil {
		return 1
	}
	return gridValue(b.ShapeBias[t.String()], x, y)
}

func gridValue(grid [][]float64, x, y int) float64 {
	if y >= len(grid) || x >= len(grid[y]) {
		return 1
	}
	if v := grid[y][x]; v > 0 {
		return v
	}
	return 1
}

// Manager loads and caches bias data and reference boards from a
// directory. A missing directory falls back to defaults with random
// placement.
type Manager struct {
	dir    string
	bias   *Bias
	boards map[int]*engine.Board
	mu     sync.RWMutex
}

// NewManager scans the directory for a bias file and reference boards.
func NewManager(dir string) (*Manager, error) {
	m := &Manager{
		dir:    dir,
		bias:   DefaultBias(),
		boards: make(map[int]*engine.Board),
	}
	if dir == "" {
		return m, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Warn().Str("dir", dir).Msg("config directory missing, using defaults")
		return m, nil
	}

	if err := m.loadBias(); err != nil && !errors.Is(err, ErrBiasNotFound) {
		return nil, err
	}
	if err := m.loadBoards(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) loadBias() error {
	data, err := os.ReadFile(filepath.Join(m.dir, biasFileName))
	if os.IsNotExist(err) {
		return ErrBiasNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read bias file: %w", err)
	}

	bias := DefaultBias()
	if err := json.Unmarshal(data, bias); err != nil {
		return fmt.Errorf("failed to parse bias file: %w", err)
	}
	if bias.EdgeHorizontal <= 0 {
		bias.EdgeHorizontal = DefaultEdgeHorizontal
	}
	if bias.EdgeVertical <= 0 {
		bias.EdgeVertical = DefaultEdgeVertical
	}
	m.bias = bias
	return nil
}

func (m *Manager) loadBoards() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read config directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, boardFilePref) || !strings.HasSuffix(name, boardFileSuf) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.dir, name))
		if err != nil {
			return fmt.Errorf("failed to read board file %s: %w", name, err)
		}
		var board engine.Board
		if err := json.Unmarshal(data, &board); err != nil {
			return fmt.Errorf("failed to parse board file %s: %w", name, err)
		}
		m.boards[board.ID] = &board
	}
	if len(m.boards) > 0 {
		log.Info().Int("count", len(m.boards)).Msg("loaded reference boards")
	}
	return nil
}

// Bias returns the loaded (or default) bias tables.
func (m *Manager) Bias() *Bias {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bias
}

// Board returns a fresh copy of the reference board with the given id.
// Reference boards carry only placements; discovery state starts empty.
func (m *Manager) Board(id int) (*engine.Board, bool) {
	m.mu.RLock()
	recorded, ok := m.boards[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	board := engine.NewBoard(id)
	for _, ship := range recorded.Ships {
		board.Place(engine.NewBattleship(ship.Shape, ship.X, ship.Y, ship.Rotation))
	}
	return board, true
}
