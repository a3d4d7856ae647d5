package repository

import (
	"context"
	"fmt"

	"meditation-backend/internal/models"
)

// AchievementRepository handles database operations for achievements
type AchievementRepository struct {
	db Querier
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db Querier) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// Exists checks whether the user already holds a title
func (r *AchievementRepository) Exists(ctx context.Context, userID, title string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM achievements WHERE user_id = $1 AND title = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check achievement existence: %w", err)
	}
	return exists, nil
}

// Insert grants an achievement. The unique (user_id, title) index turns a
// duplicate grant into a no-op reported as false.
func (r *AchievementRepository) Insert(ctx context.Context, a *models.Achievement) (bool, error) {
	query := `
		INSERT INTO achievements (id, user_id, title, description, earned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, title) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, a.ID, a.UserID, a.Title, a.Description, a.EarnedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert achievement: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ListByUser retrieves a user's achievements, oldest first
func (r *AchievementRepository) ListByUser(ctx context.Context, userID string) ([]models.Achievement, error) {
	query := `
		SELECT id, user_id, title, description, earned_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY earned_at ASC, title ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	achievements := []models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.Description, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating achievements: %w", err)
	}
	return achievements, nil
}
