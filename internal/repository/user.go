package repository

import (
	"context"
	"errors"
	"fmt"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db Querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, current_streak, best_streak, total_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.CurrentStreak, user.BestStreak, user.TotalMinutes, user.CreatedAt,
	)
	if err != nil {
		if kind := apperrors.FromStorage("repository.CreateUser", err); errors.Is(kind, apperrors.ErrAlreadyExists) {
			return apperrors.Wrap("repository.CreateUser", apperrors.ErrAlreadyExists, "username already taken", err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, `
		SELECT id, username, current_streak, best_streak, total_minutes, created_at
		FROM users
		WHERE id = $1
	`, id)
}

// GetForUpdate retrieves a user by ID and locks the row
func (r *UserRepository) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, `
		SELECT id, username, current_streak, best_streak, total_minutes, created_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, id)
}

func (r *UserRepository) get(ctx context.Context, query, id string) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.CurrentStreak, &user.BestStreak, &user.TotalMinutes, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap("repository.GetUser", apperrors.ErrNotFound, "user not found", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateStats writes the streak and minute counters of a user
func (r *UserRepository) UpdateStats(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET current_streak = $1, best_streak = $2, total_minutes = $3
		WHERE id = $4
	`
	result, err := r.db.Exec(ctx, query, user.CurrentStreak, user.BestStreak, user.TotalMinutes, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user stats: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.New("repository.UpdateStats", apperrors.ErrNotFound, "user not found")
	}
	return nil
}
