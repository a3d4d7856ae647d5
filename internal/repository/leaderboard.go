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

// LeaderboardRepository handles database operations for leaderboard entries
type LeaderboardRepository struct {
	db Querier
}

// NewLeaderboardRepository creates a new leaderboard repository
func NewLeaderboardRepository(db Querier) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// LockForRanking blocks other rank writers until the transaction ends.
// SHARE ROW EXCLUSIVE conflicts with itself and with row writes but not
// with plain reads, so readers keep seeing the last committed ranks.
func (r *LeaderboardRepository) LockForRanking(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `LOCK TABLE leaderboard_entries IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock leaderboard: %w", err)
	}
	return nil
}

// Upsert creates or overwrites a user's entry. New entries get a provisional
// rank until RecomputeRanks runs in the same transaction.
func (r *LeaderboardRepository) Upsert(ctx context.Context, userID string, streakCount, totalMinutes int, now time.Time) error {
	query := `
		INSERT INTO leaderboard_entries (user_id, streak_count, total_minutes, rank, updated_at)
		VALUES ($1, $2, $3, (SELECT COUNT(*) + 1 FROM leaderboard_entries), $4)
		ON CONFLICT (user_id) DO UPDATE
		SET streak_count = EXCLUDED.streak_count,
			total_minutes = EXCLUDED.total_minutes,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Exec(ctx, query, userID, streakCount, totalMinutes, now); err != nil {
		return fmt.Errorf("failed to upsert leaderboard entry: %w", err)
	}
	return nil
}

// SyncFromUsers rewrites the entry of every user who has completed a session
func (r *LeaderboardRepository) SyncFromUsers(ctx context.Context, now time.Time) (int, error) {
	query := `
		INSERT INTO leaderboard_entries (user_id, streak_count, total_minutes, rank, updated_at)
		SELECT u.id, u.current_streak, u.total_minutes, 0, $1
		FROM users u
		WHERE EXISTS (SELECT 1 FROM sessions s WHERE s.user_id = u.id)
		ON CONFLICT (user_id) DO UPDATE
		SET streak_count = EXCLUDED.streak_count,
			total_minutes = EXCLUDED.total_minutes,
			updated_at = EXCLUDED.updated_at
	`
	result, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sync leaderboard from users: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// RecomputeRanks assigns every entry its row number in
// (streak desc, minutes desc, user id asc) order and returns the number of
// rows whose rank changed.
func (r *LeaderboardRepository) RecomputeRanks(ctx context.Context) (int, error) {
	query := `
		UPDATE leaderboard_entries AS le
		SET rank = ranked.rn
		FROM (
			SELECT user_id,
				ROW_NUMBER() OVER (ORDER BY streak_count DESC, total_minutes DESC, user_id ASC) AS rn
			FROM leaderboard_entries
		) AS ranked
		WHERE le.user_id = ranked.user_id AND le.rank <> ranked.rn
	`
	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute ranks: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// Get retrieves the entry of one user
func (r *LeaderboardRepository) Get(ctx context.Context, userID string) (*models.LeaderboardEntry, error) {
	query := `
		SELECT le.user_id, u.username, le.streak_count, le.total_minutes, le.rank, le.updated_at
		FROM leaderboard_entries le
		JOIN users u ON u.id = le.user_id
		WHERE le.user_id = $1
	`
	var e models.LeaderboardEntry
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&e.UserID, &e.Username, &e.StreakCount, &e.TotalMinutes, &e.Rank, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap("repository.GetEntry", apperrors.ErrNotFound, "leaderboard entry not found", err)
		}
		return nil, fmt.Errorf("failed to get leaderboard entry: %w", err)
	}
	return &e, nil
}

// Top retrieves the first limit entries by stored rank
func (r *LeaderboardRepository) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT le.user_id, u.username, le.streak_count, le.total_minutes, le.rank, le.updated_at
		FROM leaderboard_entries le
		JOIN users u ON u.id = le.user_id
		ORDER BY le.rank ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard top: %w", err)
	}
	return scanEntries(rows)
}

// All retrieves every entry by stored rank
func (r *LeaderboardRepository) All(ctx context.Context) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT le.user_id, u.username, le.streak_count, le.total_minutes, le.rank, le.updated_at
		FROM leaderboard_entries le
		JOIN users u ON u.id = le.user_id
		ORDER BY le.rank ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	return scanEntries(rows)
}

// CountAhead counts entries strictly ahead of the given streak and minutes
func (r *LeaderboardRepository) CountAhead(ctx context.Context, streakCount, totalMinutes int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM leaderboard_entries
		WHERE streak_count > $1 OR (streak_count = $1 AND total_minutes > $2)
	`
	var count int
	if err := r.db.QueryRow(ctx, query, streakCount, totalMinutes).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries ahead: %w", err)
	}
	return count, nil
}

func scanEntries(rows pgx.Rows) ([]models.LeaderboardEntry, error) {
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.StreakCount, &e.TotalMinutes, &e.Rank, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}
	return entries, nil
}
