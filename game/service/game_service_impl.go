package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/storage"
)

// gameServiceImpl implements the GameService interface. Requests are
// serialized by a single mutex: board state lives in storage between
// requests, so a failed persist discards the in-memory mutation.
type gameServiceImpl struct {
	store       SessionStore
	boards      BoardProvider
	broadcaster Broadcaster
	rng         *rand.Rand
	mu          sync.Mutex
}

// Option configures the game service.
type Option func(*gameServiceImpl)

// WithBoardProvider makes new maps load from pre-recorded boards when
// a recording exists for the map id.
func WithBoardProvider(provider BoardProvider) Option {
	return func(s *gameServiceImpl) {
		s.boards = provider
	}
}

// WithBroadcaster pushes the public snapshot to spectators after every
// fire and avenger fire.
func WithBroadcaster(broadcaster Broadcaster) Option {
	return func(s *gameServiceImpl) {
		s.broadcaster = broadcaster
	}
}

// WithRand seeds board generation, used by deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *gameServiceImpl) {
		s.rng = rng
	}
}

// NewGameService creates a new game service instance.
func NewGameService(store SessionStore, options ...Option) GameService {
	s := &gameServiceImpl{store: store}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *gameServiceImpl) Status(ctx context.Context, token string) (*FireResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, board, err := s.session(token)
	if err != nil {
		return nil, err
	}
	if err := s.persist(token, user, board, false); err != nil {
		return nil, err
	}

	resp := s.response(user, board, "", true, false)
	return resp, nil
}

func (s *gameServiceImpl) Fire(ctx context.Context, token string, x, y int) (*FireResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !engine.InBounds(x, y) {
		return nil, fmt.Errorf("%w: (%d, %d)", engine.ErrOutOfBounds, x, y)
	}

	user, board, err := s.session(token)
	if err != nil {
		return nil, err
	}

	wasDiscovered := board.Discovered(x, y)
	cell, err := board.Fire(x, y)
	if err != nil {
		return nil, err
	}

	finished := board.AllDiscovered()
	if err := s.persist(token, user, board, finished); err != nil {
		return nil, err
	}

	resp := s.response(user, board, cell.String(), !wasDiscovered, finished)
	s.broadcast(token, resp)
	return resp, nil
}

func (s *gameServiceImpl) FireAvenger(ctx context.Context, token string, x, y int, avenger engine.Avenger) (*AvengerFireResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !engine.InBounds(x, y) {
		return nil, fmt.Errorf("%w: (%d, %d)", engine.ErrOutOfBounds, x, y)
	}

	user, board, err := s.session(token)
	if err != nil {
		return nil, err
	}

	wasDiscovered := board.Discovered(x, y)
	cell, results, err := board.FireAvenger(x, y, avenger)
	if err != nil {
		return nil, err
	}

	finished := board.AllDiscovered()
	if err := s.persist(token, user, board, finished); err != nil {
		return nil, err
	}

	resp := &AvengerFireResponse{
		FireResponse:  *s.response(user, board, cell.String(), !wasDiscovered, finished),
		AvengerResult: WireAvengerResults(results),
	}
	s.broadcast(token, &resp.FireResponse)
	return resp, nil
}

func (s *gameServiceImpl) Reset(ctx context.Context, token string, wipe bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.DeleteBoard(token); err != nil {
		return err
	}
	if wipe {
		if _, err := s.store.DeleteUser(token); err != nil {
			return err
		}
	}
	return nil
}

// session loads the token's counters and active board, creating either
// when absent. A new board starts a new game when the previous one is
// complete.
func (s *gameServiceImpl) session(token string) (*UserData, *engine.Board, error) {
	user, err := s.store.LoadUser(token)
	if errors.Is(err, storage.ErrNotFound) {
		user = NewUserData()
	} else if err != nil {
		return nil, nil, err
	}

	board, err := s.store.LoadBoard(token)
	if errors.Is(err, storage.ErrNotFound) {
		board, err = s.newBoard(user)
	}
	if err != nil {
		return nil, nil, err
	}
	return user, board, nil
}

func (s *gameServiceImpl) newBoard(user *UserData) (*engine.Board, error) {
	if user.Attempts >= MaxAttempts {
		return nil, ErrAttemptLimit
	}
	if user.RemainingMapCount == 0 {
		// Previous game finished; the next board starts a fresh one.
		user.RemainingMapCount = MapsPerGame
		user.CurrentGameScore = 0
	}
	user.Attempts++
	user.LastMapID++

	if s.boards != nil {
		if board, ok := s.boards.Board(user.LastMapID); ok {
			return board, nil
		}
	}
	return engine.PlaceRandom(user.LastMapID, s.rng)
}

// persist writes the mutated session back. A completed board is
// deleted and scored instead of saved.
func (s *gameServiceImpl) persist(token string, user *UserData, board *engine.Board, finished bool) error {
	if finished {
		user.CurrentGameScore += board.MoveCount
		user.RemainingMapCount--
		if _, err := s.store.DeleteBoard(token); err != nil {
			return err
		}
		log.Info().
			Int("map_id", board.ID).
			Int("moves", board.MoveCount).
			Int("remaining", user.RemainingMapCount).
			Msg("map completed")

		if user.RemainingMapCount == 0 {
			if user.BestScore == 0 || user.CurrentGameScore < user.BestScore {
				user.BestScore = user.CurrentGameScore
			}
			log.Info().
				Int("score", user.CurrentGameScore).
				Int("best", user.BestScore).
				Msg("game completed")
		}
	} else {
		if err := s.store.SaveBoard(token, board); err != nil {
			return err
		}
	}
	return s.store.SaveUser(token, user)
}

func (s *gameServiceImpl) response(user *UserData, board *engine.Board, cell string, result, finished bool) *FireResponse {
	return &FireResponse{
		Grid:             board.GridString(),
		Cell:             cell,
		Result:           result,
		AvengerAvailable: board.AvengerAvailable,
		MapID:            board.ID,
		MapCount:         user.RemainingMapCount,
		MoveCount:        board.MoveCount,
		Finished:         finished,
	}
}

func (s *gameServiceImpl) broadcast(token string, resp *FireResponse) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToToken(token, resp)
	}
}
