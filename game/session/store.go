// Package session maps tokens to their persisted user counters and
// active board, stored as JSON blobs in a key-value storage.
package session

import (
	"encoding/json"
	"fmt"

	"github.com/Electry/panaxeo-coding-arena-2023/game/engine"
	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
	"github.com/Electry/panaxeo-coding-arena-2023/storage"
	"github.com/Electry/panaxeo-coding-arena-2023/validate"
)

const (
	userKeyPrefix = "user:"
	mapKeyPrefix  = "map:"
)

// Store implements service.SessionStore over a storage.Storage.
type Store struct {
	kv storage.Storage
}

func NewStore(kv storage.Storage) *Store {
	return &Store{kv: kv}
}

func userKey(token string) string { return userKeyPrefix + token }
func mapKey(token string) string  { return mapKeyPrefix + token }

func (s *Store) LoadUser(token string) (*service.UserData, error) {
	data, err := s.kv.Get(userKey(token))
	if err != nil {
		return nil, err
	}
	if result := validate.User(data); !result.Valid {
		return nil, result.Err()
	}
	var user service.UserData
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", validate.ErrDataFormat, err)
	}
	return &user, nil
}

func (s *Store) SaveUser(token string, user *service.UserData) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user data: %w", err)
	}
	return s.kv.Set(userKey(token), data)
}

func (s *Store) LoadBoard(token string) (*engine.Board, error) {
	data, err := s.kv.Get(mapKey(token))
	if err != nil {
		return nil, err
	}
	if result := validate.Board(data); !result.Valid {
		return nil, result.Err()
	}
	var board engine.Board
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("%w: %v", validate.ErrDataFormat, err)
	}
	return &board, nil
}

func (s *Store) SaveBoard(token string, board *engine.Board) error {
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}
	return s.kv.Set(mapKey(token), data)
}

func (s *Store) DeleteBoard(token string) (bool, error) {
	return s.kv.Delete(mapKey(token))
}

func (s *Store) DeleteUser(token string) (bool, error) {
	return s.kv.Delete(userKey(token))
}
