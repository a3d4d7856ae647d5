package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// FriendshipRepository handles database operations for friendships
type FriendshipRepository struct {
	db Querier
}

// NewFriendshipRepository creates a new friendship repository
func NewFriendshipRepository(db Querier) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

// Create creates a new friendship edge
func (r *FriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	query := `
		INSERT INTO friendships (id, user_id, friend_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, f.ID, f.UserID, f.FriendID, string(f.Status), f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// FindBetween retrieves the edge between two users in either direction
func (r *FriendshipRepository) FindBetween(ctx context.Context, userID, otherID string) (*models.Friendship, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
		LIMIT 1
	`
	return r.get(ctx, query, userID, otherID)
}

// GetPendingRequest retrieves a pending request addressed to friendID
func (r *FriendshipRepository) GetPendingRequest(ctx context.Context, requestID, friendID string) (*models.Friendship, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friendships
		WHERE id = $1 AND friend_id = $2 AND status = 'pending'
	`
	return r.get(ctx, query, requestID, friendID)
}

func (r *FriendshipRepository) get(ctx context.Context, query string, args ...any) (*models.Friendship, error) {
	var f models.Friendship
	var status string
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&f.ID, &f.UserID, &f.FriendID, &status, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap("repository.GetFriendship", apperrors.ErrNotFound, "friendship not found", err)
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	f.Status = models.FriendshipStatus(status)
	return &f, nil
}

// Accept marks a request as accepted
func (r *FriendshipRepository) Accept(ctx context.Context, requestID string, now time.Time) error {
	query := `UPDATE friendships SET status = 'accepted', updated_at = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, now, requestID)
	if err != nil {
		return fmt.Errorf("failed to accept friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.New("repository.AcceptFriendship", apperrors.ErrNotFound, "friendship not found")
	}
	return nil
}

// Delete deletes a friendship by ID
func (r *FriendshipRepository) Delete(ctx context.Context, requestID string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.New("repository.DeleteFriendship", apperrors.ErrNotFound, "friendship not found")
	}
	return nil
}

// ListFriends retrieves users joined to userID by an accepted edge
func (r *FriendshipRepository) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.current_streak, u.best_streak, u.total_minutes, u.created_at
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_id = $1 THEN f.friend_id ELSE f.user_id END
		WHERE (f.user_id = $1 OR f.friend_id = $1) AND f.status = 'accepted'
		ORDER BY u.username ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	friends := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.CurrentStreak, &u.BestStreak, &u.TotalMinutes, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}
	return friends, nil
}

// ListIncoming retrieves pending requests addressed to userID
func (r *FriendshipRepository) ListIncoming(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	query := `
		SELECT f.id, f.user_id, u.username
		FROM friendships f
		JOIN users u ON u.id = f.user_id
		WHERE f.friend_id = $1 AND f.status = 'pending'
		ORDER BY f.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	defer rows.Close()

	requests := []models.FriendRequest{}
	for rows.Next() {
		var fr models.FriendRequest
		if err := rows.Scan(&fr.RequestID, &fr.UserID, &fr.Username); err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		requests = append(requests, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friend requests: %w", err)
	}
	return requests, nil
}
