// Package streak derives consecutive-day meditation streaks from session history.
package streak

import (
	"context"
	"fmt"
	"slices"
	"time"

	"meditation-backend/internal/models"
)

// SessionLister lists a user's sessions, most recent first
type SessionLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
}

// Result is the outcome of a streak update
type Result struct {
	Count     int  `json:"count"`
	IsNewBest bool `json:"is_new_best"`
}

// Calculator computes streaks on calendar days of a fixed location
type Calculator struct {
	loc *time.Location
}

// NewCalculator creates a calculator; a nil location means UTC
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc}
}

// Update recomputes the user's streak as of now and applies it to user.
// CurrentStreak is always overwritten, BestStreak only ever grows.
func (c *Calculator) Update(ctx context.Context, sessions SessionLister, user *models.User, now time.Time) (Result, error) {
	history, err := sessions.ListByUser(ctx, user.ID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	count := c.Count(history, now)
	result := Result{Count: count, IsNewBest: count > user.BestStreak}
	if result.IsNewBest {
		user.BestStreak = count
	}
	user.CurrentStreak = count
	return result, nil
}

// Count returns the streak length for sessions ordered most recent first.
// Several sessions on one calendar day count as that single day.
func (c *Calculator) Count(sessions []models.Session, now time.Time) int {
	days := c.distinctDays(sessions)
	if len(days) == 0 {
		return 0
	}

	today := c.day(now)
	yesterday := today.AddDate(0, 0, -1)
	if !days[0].Equal(today) && !days[0].Equal(yesterday) {
		return 1
	}

	count := 1
	last := days[0]
	for _, d := range days[1:] {
		if !last.AddDate(0, 0, -1).Equal(d) {
			break
		}
		count++
		last = d
	}
	return count
}

// distinctDays collapses sessions into unique calendar days, most recent first
func (c *Calculator) distinctDays(sessions []models.Session) []time.Time {
	days := make([]time.Time, 0, len(sessions))
	for _, s := range sessions {
		days = append(days, c.day(s.CompletedAt))
	}
	slices.SortFunc(days, func(a, b time.Time) int {
		return b.Compare(a)
	})
	return slices.CompactFunc(days, time.Time.Equal)
}

// day truncates t to midnight of its calendar date in the calculator's
// location, expressed in UTC so AddDate never crosses a DST shift.
func (c *Calculator) day(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Day returns the calendar date of t in the calculator's location
func (c *Calculator) Day(t time.Time) time.Time {
	return c.day(t)
}

// Location returns the calendar location
func (c *Calculator) Location() *time.Location {
	return c.loc
}
