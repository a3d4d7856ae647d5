// Package memory is an in-process implementation of repository.Store.
//
// Write transactions are serialized by a mutex and run against a private
// copy of the data that replaces the committed state only when the unit of
// work succeeds, so a failed transaction leaves nothing behind.
package memory

import (
	"context"
	"maps"
	"sync"

	"meditation-backend/internal/models"
	"meditation-backend/internal/repository"
)

type state struct {
	users        map[string]models.User
	sessions     map[string][]models.Session
	achievements map[string]map[string]models.Achievement
	leaderboard  map[string]models.LeaderboardEntry
	friendships  map[string]models.Friendship
}

func newState() *state {
	return &state{
		users:        make(map[string]models.User),
		sessions:     make(map[string][]models.Session),
		achievements: make(map[string]map[string]models.Achievement),
		leaderboard:  make(map[string]models.LeaderboardEntry),
		friendships:  make(map[string]models.Friendship),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:        maps.Clone(s.users),
		sessions:     make(map[string][]models.Session, len(s.sessions)),
		achievements: make(map[string]map[string]models.Achievement, len(s.achievements)),
		leaderboard:  maps.Clone(s.leaderboard),
		friendships:  maps.Clone(s.friendships),
	}
	for userID, list := range s.sessions {
		c.sessions[userID] = append([]models.Session(nil), list...)
	}
	for userID, held := range s.achievements {
		c.achievements[userID] = maps.Clone(held)
	}
	return c
}

// Store keeps all entities in memory
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{state: newState()}
}

// WithTx runs fn with exclusive access and commits only if fn succeeds
func (s *Store) WithTx(ctx context.Context, fn repository.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(ctx, &tx{st: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

// ReadOnly runs fn against a copy of the committed state
func (s *Store) ReadOnly(ctx context.Context, fn repository.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(ctx, &tx{st: snapshot})
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type tx struct {
	st *state
}

func (t *tx) Users() repository.UserStore               { return &userStore{st: t.st} }
func (t *tx) Sessions() repository.SessionStore         { return &sessionStore{st: t.st} }
func (t *tx) Achievements() repository.AchievementStore { return &achievementStore{st: t.st} }
func (t *tx) Leaderboard() repository.LeaderboardStore  { return &leaderboardStore{st: t.st} }
func (t *tx) Friendships() repository.FriendshipStore   { return &friendshipStore{st: t.st} }
