package repository

import (
	"context"
	"fmt"
	"time"

	"meditation-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// SessionRepository handles database operations for meditation sessions
type SessionRepository struct {
	db Querier
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db Querier) *SessionRepository {
	return &SessionRepository{db: db}
}

// Append records a completed session
func (r *SessionRepository) Append(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, duration_seconds, completed_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, session.ID, session.UserID, session.DurationSeconds, session.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to append session: %w", err)
	}
	return nil
}

// ListByUser retrieves every session of a user, most recent first
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	query := `
		SELECT id, user_id, duration_seconds, completed_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY completed_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return scanSessions(rows)
}

// ListByUserSince retrieves sessions completed at or after from, most recent first
func (r *SessionRepository) ListByUserSince(ctx context.Context, userID string, from time.Time) ([]models.Session, error) {
	query := `
		SELECT id, user_id, duration_seconds, completed_at
		FROM sessions
		WHERE user_id = $1 AND completed_at >= $2
		ORDER BY completed_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions since %s: %w", from.Format(time.RFC3339), err)
	}
	return scanSessions(rows)
}

// CountByUser returns the lifetime session count of a user
func (r *SessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sessions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

func scanSessions(rows pgx.Rows) ([]models.Session, error) {
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.DurationSeconds, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}
