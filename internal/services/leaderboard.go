package services

import (
	"context"
	"fmt"
	"time"

	"meditation-backend/internal/leaderboard"
	"meditation-backend/internal/models"
	"meditation-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// TopCache caches the top of the leaderboard between completions. Lists are
// stored per generation; Invalidate starts a new one, so a fill tagged with
// the generation read before the store query never outlives a commit.
type TopCache interface {
	Generation(ctx context.Context) (int64, error)
	GetTop(ctx context.Context, generation int64, limit int) ([]models.LeaderboardEntry, bool, error)
	SetTop(ctx context.Context, generation int64, limit int, entries []models.LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

// UserRank describes where a user stands. StoredRank is the row-number rank
// written by the last recompute; Rank counts only entries strictly ahead, so
// tied users share it.
type UserRank struct {
	UserID       string `json:"user_id"`
	StreakCount  int    `json:"streak_count"`
	TotalMinutes int    `json:"total_minutes"`
	StoredRank   int    `json:"stored_rank"`
	Rank         int    `json:"rank"`
}

// LeaderboardService serves leaderboard reads and maintenance
type LeaderboardService struct {
	store repository.Store
	cache TopCache
	now   func() time.Time
}

// NewLeaderboardService creates a new leaderboard service. cache may be nil.
func NewLeaderboardService(store repository.Store, cache TopCache) *LeaderboardService {
	return &LeaderboardService{store: store, cache: cache, now: time.Now}
}

// Top returns up to limit entries ordered by stored rank
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	limit = leaderboard.ClampLimit(limit)

	// The generation must be read before the store so that an invalidation
	// racing this call retires the list written below.
	useCache := s.cache != nil
	var generation int64
	if useCache {
		var err error
		if generation, err = s.cache.Generation(ctx); err != nil {
			log.Warn().Err(err).Msg("Leaderboard cache generation read failed")
			useCache = false
		}
	}
	if useCache {
		entries, ok, err := s.cache.GetTop(ctx, generation, limit)
		if err != nil {
			log.Warn().Err(err).Msg("Leaderboard cache read failed")
		} else if ok {
			return entries, nil
		}
	}

	var entries []models.LeaderboardEntry
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		entries, err = tx.Leaderboard().Top(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard top: %w", err)
	}

	if useCache {
		if err := s.cache.SetTop(ctx, generation, limit, entries); err != nil {
			log.Warn().Err(err).Msg("Leaderboard cache write failed")
		}
	}
	return entries, nil
}

// UserRank returns both rank views of a user's entry
func (s *LeaderboardService) UserRank(ctx context.Context, userID string) (*UserRank, error) {
	var rank *UserRank
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx repository.Tx) error {
		entry, err := tx.Leaderboard().Get(ctx, userID)
		if err != nil {
			return err
		}
		ahead, err := tx.Leaderboard().CountAhead(ctx, entry.StreakCount, entry.TotalMinutes)
		if err != nil {
			return err
		}
		rank = &UserRank{
			UserID:       userID,
			StreakCount:  entry.StreakCount,
			TotalMinutes: entry.TotalMinutes,
			StoredRank:   entry.Rank,
			Rank:         ahead + 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rank, nil
}

// Rebuild rewrites every entry from user stats and recomputes all ranks
func (s *LeaderboardService) Rebuild(ctx context.Context) error {
	var synced, changed int
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ranking := tx.Leaderboard()
		if err := ranking.LockForRanking(ctx); err != nil {
			return err
		}
		var err error
		if synced, err = ranking.SyncFromUsers(ctx, s.now().UTC()); err != nil {
			return err
		}
		changed, err = ranking.RecomputeRanks(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to invalidate leaderboard cache")
		}
	}

	log.Info().Int("entries", synced).Int("ranks_changed", changed).Msg("Leaderboard rebuilt")
	return nil
}

// Snapshot returns every entry ordered by stored rank
func (s *LeaderboardService) Snapshot(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		entries, err = tx.Leaderboard().All(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard snapshot: %w", err)
	}
	return entries, nil
}
