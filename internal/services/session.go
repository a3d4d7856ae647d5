package services

import (
	"context"
	"fmt"
	"time"

	"meditation-backend/internal/achievement"
	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/models"
	"meditation-backend/internal/repository"
	"meditation-backend/internal/streak"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier receives events after a completion has been committed
type Notifier interface {
	NotifyAchievements(userID string, granted []models.Achievement)
	NotifyLeaderboardUpdated(userID string)
}

// CompletionResult is the outcome of a completed session
type CompletionResult struct {
	SessionID           string               `json:"session_id"`
	Streak              int                  `json:"streak"`
	IsNewBest           bool                 `json:"is_new_best"`
	BestStreak          int                  `json:"best_streak"`
	TotalMinutes        int                  `json:"total_minutes"`
	AchievementsGranted []models.Achievement `json:"achievements_granted"`
}

// SessionService records completed sessions and keeps streaks,
// achievements and the leaderboard consistent with them
type SessionService struct {
	store     repository.Store
	streaks   *streak.Calculator
	evaluator *achievement.Evaluator
	cache     TopCache
	notifier  Notifier
	now       func() time.Time
}

// NewSessionService creates a new session service. cache and notifier may be nil.
func NewSessionService(
	store repository.Store,
	streaks *streak.Calculator,
	evaluator *achievement.Evaluator,
	cache TopCache,
	notifier Notifier,
) *SessionService {
	return &SessionService{
		store:     store,
		streaks:   streaks,
		evaluator: evaluator,
		cache:     cache,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Complete records a finished session of durationSeconds for userID.
// Session append, stat updates, achievement grants and the global rank
// recompute commit together or not at all.
func (s *SessionService) Complete(ctx context.Context, userID string, durationSeconds int) (*CompletionResult, error) {
	if userID == "" {
		return nil, apperrors.New("services.Complete", apperrors.ErrUnauthorized, "no user identity")
	}
	if durationSeconds <= 0 {
		return nil, apperrors.New("services.Complete", apperrors.ErrInvalidInput, "duration must be a positive number of seconds")
	}

	now := s.now().UTC()
	var result *CompletionResult

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ranking := tx.Leaderboard()
		if err := ranking.LockForRanking(ctx); err != nil {
			return err
		}

		user, err := tx.Users().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		session := &models.Session{
			ID:              uuid.New().String(),
			UserID:          userID,
			DurationSeconds: durationSeconds,
			CompletedAt:     now,
		}
		if err := tx.Sessions().Append(ctx, session); err != nil {
			return err
		}
		user.TotalMinutes += durationSeconds / 60

		streakResult, err := s.streaks.Update(ctx, tx.Sessions(), user, now)
		if err != nil {
			return err
		}
		if err := tx.Users().UpdateStats(ctx, user); err != nil {
			return err
		}

		count, err := tx.Sessions().CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		granted, err := s.evaluator.Evaluate(ctx, tx.Achievements(), userID, count, user.CurrentStreak, now)
		if err != nil {
			return err
		}

		if err := ranking.Upsert(ctx, userID, user.CurrentStreak, user.TotalMinutes, now); err != nil {
			return err
		}
		if _, err := ranking.RecomputeRanks(ctx); err != nil {
			return err
		}

		result = &CompletionResult{
			SessionID:           session.ID,
			Streak:              streakResult.Count,
			IsNewBest:           streakResult.IsNewBest,
			BestStreak:          user.BestStreak,
			TotalMinutes:        user.TotalMinutes,
			AchievementsGranted: granted,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Int("duration_seconds", durationSeconds).
		Int("streak", result.Streak).
		Int("achievements_granted", len(result.AchievementsGranted)).
		Msg("Session completed")

	s.afterCommit(ctx, userID, result)
	return result, nil
}

// afterCommit runs side effects that must not affect the committed result
func (s *SessionService) afterCommit(ctx context.Context, userID string, result *CompletionResult) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to invalidate leaderboard cache")
		}
	}
	if s.notifier != nil {
		if len(result.AchievementsGranted) > 0 {
			s.notifier.NotifyAchievements(userID, result.AchievementsGranted)
		}
		s.notifier.NotifyLeaderboardUpdated(userID)
	}
}

// Achievements lists the achievements a user holds
func (s *SessionService) Achievements(ctx context.Context, userID string) ([]models.Achievement, error) {
	var held []models.Achievement
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		var err error
		held, err = tx.Achievements().ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return held, nil
}
