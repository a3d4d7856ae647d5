package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"meditation-backend/internal/models"
	"meditation-backend/internal/repository"
	"meditation-backend/internal/streak"
)

const (
	weekDays            = 7
	dailyPromptDuration = 300
)

var dailyPrompts = []string{
	"Focus on your breath for 5 minutes. Notice the rise and fall of your chest.",
	"Scan your body from head to toe, releasing tension in each part.",
	"Practice loving-kindness meditation by sending good wishes to yourself and others.",
	"Observe your thoughts like clouds passing in the sky, without judgment.",
	"Count your breaths from 1 to 10, then start over.",
}

// DailyPrompt is a suggested meditation
type DailyPrompt struct {
	Instruction string `json:"instruction"`
	Duration    int    `json:"duration"`
}

// StatsService builds activity summaries
type StatsService struct {
	store   repository.Store
	streaks *streak.Calculator
	now     func() time.Time
	pick    func(n int) int
}

// NewStatsService creates a new stats service
func NewStatsService(store repository.Store, streaks *streak.Calculator) *StatsService {
	return &StatsService{
		store:   store,
		streaks: streaks,
		now:     time.Now,
		pick:    rand.IntN,
	}
}

// Weekly returns one entry per day for the last seven days, oldest first,
// using the same calendar as streaks
func (s *StatsService) Weekly(ctx context.Context, userID string) ([]models.DailyStat, error) {
	loc := s.streaks.Location()
	today := s.streaks.Day(s.now())
	first := today.AddDate(0, 0, -(weekDays - 1))
	from := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)

	var sessions []models.Session
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		var err error
		sessions, err = tx.Sessions().ListByUserSince(ctx, userID, from)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly sessions: %w", err)
	}

	stats := make([]models.DailyStat, weekDays)
	index := make(map[time.Time]int, weekDays)
	for i := range stats {
		d := first.AddDate(0, 0, i)
		stats[i] = models.DailyStat{Date: d.Format("2006-01-02"), Day: d.Format("Mon")}
		index[d] = i
	}
	for _, sess := range sessions {
		i, ok := index[s.streaks.Day(sess.CompletedAt)]
		if !ok {
			continue
		}
		stats[i].Minutes += sess.DurationSeconds / 60
		stats[i].Sessions++
	}
	return stats, nil
}

// DailyPrompt picks a meditation instruction
func (s *StatsService) DailyPrompt() DailyPrompt {
	return DailyPrompt{
		Instruction: dailyPrompts[s.pick(len(dailyPrompts))],
		Duration:    dailyPromptDuration,
	}
}
