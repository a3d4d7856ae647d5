package repository

import (
	"context"
	"errors"
	"time"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserStore persists users and their aggregate stats
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetForUpdate loads the user and locks the row until the transaction ends
	GetForUpdate(ctx context.Context, id string) (*models.User, error)
	UpdateStats(ctx context.Context, user *models.User) error
}

// SessionStore is the append-only record of completed sessions
type SessionStore interface {
	Append(ctx context.Context, session *models.Session) error
	// ListByUser returns sessions most recent first
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
	ListByUserSince(ctx context.Context, userID string, from time.Time) ([]models.Session, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// AchievementStore persists granted achievements
type AchievementStore interface {
	Exists(ctx context.Context, userID, title string) (bool, error)
	Insert(ctx context.Context, a *models.Achievement) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.Achievement, error)
}

// LeaderboardStore keeps one ranking entry per user
type LeaderboardStore interface {
	// LockForRanking takes exclusive write access to the leaderboard for the
	// rest of the transaction. Call it before any other statement.
	LockForRanking(ctx context.Context) error
	Upsert(ctx context.Context, userID string, streakCount, totalMinutes int, now time.Time) error
	// SyncFromUsers rewrites every entry from the users table
	SyncFromUsers(ctx context.Context, now time.Time) (int, error)
	RecomputeRanks(ctx context.Context) (int, error)
	Get(ctx context.Context, userID string) (*models.LeaderboardEntry, error)
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	All(ctx context.Context) ([]models.LeaderboardEntry, error)
	CountAhead(ctx context.Context, streakCount, totalMinutes int) (int, error)
}

// FriendshipStore persists friendship edges
type FriendshipStore interface {
	Create(ctx context.Context, f *models.Friendship) error
	FindBetween(ctx context.Context, userID, otherID string) (*models.Friendship, error)
	GetPendingRequest(ctx context.Context, requestID, friendID string) (*models.Friendship, error)
	Accept(ctx context.Context, requestID string, now time.Time) error
	Delete(ctx context.Context, requestID string) error
	ListFriends(ctx context.Context, userID string) ([]models.User, error)
	ListIncoming(ctx context.Context, userID string) ([]models.FriendRequest, error)
}

// Tx exposes every store bound to one transaction
type Tx interface {
	Users() UserStore
	Sessions() SessionStore
	Achievements() AchievementStore
	Leaderboard() LeaderboardStore
	Friendships() FriendshipStore
}

// TxFunc is a unit of work run inside a transaction
type TxFunc func(ctx context.Context, tx Tx) error

// Store is a transactional datastore. A TxFunc that returns an error leaves
// every entity unchanged.
type Store interface {
	WithTx(ctx context.Context, fn TxFunc) error
	ReadOnly(ctx context.Context, fn TxFunc) error
	Ping(ctx context.Context) error
}

// Querier is implemented by both *pgxpool.Pool and pgx.Tx
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore runs transactions against a pgx pool
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres-backed store
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithTx runs fn in a serializable read-write transaction
func (s *PostgresStore) WithTx(ctx context.Context, fn TxFunc) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}, "repository.WithTx", fn)
}

// ReadOnly runs fn in a read-only transaction
func (s *PostgresStore) ReadOnly(ctx context.Context, fn TxFunc) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, "repository.ReadOnly", fn)
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return apperrors.Wrap("repository.Ping", apperrors.ErrStorageUnavailable, "database unreachable", err)
	}
	return nil
}

func (s *PostgresStore) run(ctx context.Context, opts pgx.TxOptions, op string, fn TxFunc) (err error) {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return apperrors.FromStorage(op, classifyBegin(err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if err = fn(ctx, &pgTx{q: tx}); err != nil {
		return apperrors.FromStorage(op, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return apperrors.FromStorage(op, err)
	}
	return nil
}

// classifyBegin marks failures to open a transaction as unavailability
// unless Postgres itself answered with a more specific error.
func classifyBegin(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	return apperrors.Wrap("repository.Begin", apperrors.ErrStorageUnavailable, "failed to begin transaction", err)
}

type pgTx struct {
	q Querier
}

func (t *pgTx) Users() UserStore               { return NewUserRepository(t.q) }
func (t *pgTx) Sessions() SessionStore         { return NewSessionRepository(t.q) }
func (t *pgTx) Achievements() AchievementStore { return NewAchievementRepository(t.q) }
func (t *pgTx) Leaderboard() LeaderboardStore  { return NewLeaderboardRepository(t.q) }
func (t *pgTx) Friendships() FriendshipStore   { return NewFriendshipRepository(t.q) }
