// Package achievement grants one-time badges for session counts and streaks.
package achievement

import (
	"context"
	"fmt"
	"time"

	"meditation-backend/internal/models"

	"github.com/google/uuid"
)

// Trigger is the metric a definition is measured against
type Trigger string

const (
	TriggerCount  Trigger = "count"
	TriggerStreak Trigger = "streak"
)

// Definition describes an achievement and its threshold
type Definition struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Trigger     Trigger `json:"trigger"`
	Threshold   int     `json:"threshold"`
}

// "Monthly Master" is in both tables. Titles are unique per user, so it is
// granted once by whichever table reaches it first.
var countDefinitions = []Definition{
	{Title: "First Step", Description: "Complete your first meditation", Trigger: TriggerCount, Threshold: 1},
	{Title: "Week Warrior", Description: "Complete 7 meditations", Trigger: TriggerCount, Threshold: 7},
	{Title: "Monthly Master", Description: "Complete 30 meditations", Trigger: TriggerCount, Threshold: 30},
	{Title: "Zen Master", Description: "Complete 100 meditations", Trigger: TriggerCount, Threshold: 100},
}

var streakDefinitions = []Definition{
	{Title: "Three-Day Focus", Description: "Maintain a 3-day meditation streak", Trigger: TriggerStreak, Threshold: 3},
	{Title: "Week of Wisdom", Description: "Complete a full week of daily meditation", Trigger: TriggerStreak, Threshold: 7},
	{Title: "Fortnight of Flow", Description: "Maintain a 2-week meditation streak", Trigger: TriggerStreak, Threshold: 14},
	{Title: "Three Weeks of Tranquility", Description: "Complete 21 days of meditation", Trigger: TriggerStreak, Threshold: 21},
	{Title: "Monthly Master", Description: "Maintain a monthly meditation practice", Trigger: TriggerStreak, Threshold: 30},
	{Title: "Centurion of Calm", Description: "Complete 100 days of meditation", Trigger: TriggerStreak, Threshold: 100},
}

// Catalog returns every definition, count-based first
func Catalog() []Definition {
	all := make([]Definition, 0, len(countDefinitions)+len(streakDefinitions))
	all = append(all, countDefinitions...)
	return append(all, streakDefinitions...)
}

// Store is the achievement storage used inside a transaction
type Store interface {
	Exists(ctx context.Context, userID, title string) (bool, error)
	// Insert stores a grant and reports false when the title was already held
	Insert(ctx context.Context, a *models.Achievement) (bool, error)
}

// Evaluator decides which achievements a user has newly earned
type Evaluator struct {
	definitions []Definition
}

// NewEvaluator creates an evaluator over the static catalog
func NewEvaluator() *Evaluator {
	return &Evaluator{definitions: Catalog()}
}

// Qualifying returns the definitions met by the given totals, one per title
func (e *Evaluator) Qualifying(lifetimeCount, currentStreak int) []Definition {
	seen := make(map[string]bool, len(e.definitions))
	var out []Definition
	for _, def := range e.definitions {
		value := lifetimeCount
		if def.Trigger == TriggerStreak {
			value = currentStreak
		}
		if value < def.Threshold || seen[def.Title] {
			continue
		}
		seen[def.Title] = true
		out = append(out, def)
	}
	return out
}

// Evaluate grants every qualifying achievement the user does not hold yet.
// It must run in the same transaction as the user's session append so the
// existence check and the insert cannot race with another completion.
func (e *Evaluator) Evaluate(ctx context.Context, store Store, userID string, lifetimeCount, currentStreak int, now time.Time) ([]models.Achievement, error) {
	granted := []models.Achievement{}
	for _, def := range e.Qualifying(lifetimeCount, currentStreak) {
		held, err := store.Exists(ctx, userID, def.Title)
		if err != nil {
			return nil, fmt.Errorf("failed to check achievement %q: %w", def.Title, err)
		}
		if held {
			continue
		}

		a := models.Achievement{
			ID:          uuid.New().String(),
			UserID:      userID,
			Title:       def.Title,
			Description: def.Description,
			EarnedAt:    now,
		}
		inserted, err := store.Insert(ctx, &a)
		if err != nil {
			return nil, fmt.Errorf("failed to grant achievement %q: %w", def.Title, err)
		}
		if inserted {
			granted = append(granted, a)
		}
	}
	return granted, nil
}
