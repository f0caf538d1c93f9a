package service

import (
	"context"
	"errors"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
)

var (
	ErrAttemptLimit = errors.New("attempt limit reached")
)

// GameService orchestrates per-token sessions: board lifecycle, fire
// resolution, scoring and persistence.
type GameService interface {
	// Status returns the current board snapshot without firing,
	// creating a board first if none is active.
	Status(ctx context.Context, token string) (*FireResponse, error)

	// Fire discovers the cell (x, y) on the token's active board.
	Fire(ctx context.Context, token string, x, y int) (*FireResponse, error)

	// FireAvenger discovers (x, y) and spends the avenger.
	FireAvenger(ctx context.Context, token string, x, y int, avenger engine.Avenger) (*AvengerFireResponse, error)

	// Reset deletes the ongoing board. With wipe it also removes the
	// token's user record.
	Reset(ctx context.Context, token string, wipe bool) error
}

// SessionStore is the token-keyed persistence surface the service
// drives. Implementations live in game/session.
type SessionStore interface {
	LoadUser(token string) (*UserData, error)
	SaveUser(token string, user *UserData) error
	LoadBoard(token string) (*engine.Board, error)
	SaveBoard(token string, board *engine.Board) error
	DeleteBoard(token string) (bool, error)
	DeleteUser(token string) (bool, error)
}

// BoardProvider supplies pre-recorded reference boards by id. When a
// board id has no recording, random placement is used instead.
type BoardProvider interface {
	Board(id int) (*engine.Board, bool)
}

// Broadcaster receives the public snapshot after every fire and avenger
// fire, keyed by token. Status and Reset do not broadcast.
type Broadcaster interface {
	BroadcastToToken(token string, response *FireResponse)
}
