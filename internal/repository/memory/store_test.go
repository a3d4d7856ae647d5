package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/models"
	"meditation-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func seedUsers(t *testing.T, s *Store, names ...string) {
	t.Helper()
	err := s.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		for _, name := range names {
			if err := tx.Users().Create(ctx, &models.User{ID: name, Username: name, CreatedAt: now}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := NewStore()
	seedUsers(t, s, "alice")
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Sessions().Append(ctx, &models.Session{ID: "s1", UserID: "alice", DurationSeconds: 60, CompletedAt: now}); err != nil {
			return err
		}
		if err := tx.Users().UpdateStats(ctx, &models.User{ID: "alice", CurrentStreak: 1, BestStreak: 1, TotalMinutes: 1}); err != nil {
			return err
		}
		if _, err := tx.Achievements().Insert(ctx, &models.Achievement{ID: "a1", UserID: "alice", Title: "First Step", EarnedAt: now}); err != nil {
			return err
		}
		if err := tx.Leaderboard().Upsert(ctx, "alice", 1, 1, now); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.ReadOnly(ctx, func(ctx context.Context, tx repository.Tx) error {
		count, err := tx.Sessions().CountByUser(ctx, "alice")
		require.NoError(t, err)
		assert.Zero(t, count)

		user, err := tx.Users().GetByID(ctx, "alice")
		require.NoError(t, err)
		assert.Zero(t, user.TotalMinutes)

		held, err := tx.Achievements().Exists(ctx, "alice", "First Step")
		require.NoError(t, err)
		assert.False(t, held)

		_, err = tx.Leaderboard().Get(ctx, "alice")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestWithTx_ReadsOwnWrites(t *testing.T) {
	s := NewStore()
	seedUsers(t, s, "alice")

	err := s.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.Sessions().Append(ctx, &models.Session{ID: "s1", UserID: "alice", DurationSeconds: 60, CompletedAt: now}))
		require.NoError(t, tx.Sessions().Append(ctx, &models.Session{ID: "s2", UserID: "alice", DurationSeconds: 60, CompletedAt: now.Add(time.Minute)}))

		sessions, err := tx.Sessions().ListByUser(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, "s2", sessions[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestUsers_UniqueUsername(t *testing.T) {
	s := NewStore()
	seedUsers(t, s, "alice")

	err := s.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.Users().Create(ctx, &models.User{ID: "other", Username: "alice"})
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestAchievements_InsertOnce(t *testing.T) {
	s := NewStore()
	seedUsers(t, s, "alice")

	err := s.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		a := &models.Achievement{ID: "a1", UserID: "alice", Title: "First Step", EarnedAt: now}
		inserted, err := tx.Achievements().Insert(ctx, a)
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = tx.Achievements().Insert(ctx, &models.Achievement{ID: "a2", UserID: "alice", Title: "First Step", EarnedAt: now})
		require.NoError(t, err)
		assert.False(t, inserted)

		held, err := tx.Achievements().ListByUser(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, held, 1)
		assert.Equal(t, "a1", held[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestLeaderboard_Ranks(t *testing.T) {
	s := NewStore()
	seedUsers(t, s, "a", "b", "c")

	err := s.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		lb := tx.Leaderboard()
		require.NoError(t, lb.Upsert(ctx, "c", 2, 10, now))
		require.NoError(t, lb.Upsert(ctx, "b", 2, 10, now))
		require.NoError(t, lb.Upsert(ctx, "a", 1, 99, now))
		_, err := lb.RecomputeRanks(ctx)
		require.NoError(t, err)

		top, err := lb.Top(ctx, 2)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, "b", top[0].UserID)
		assert.Equal(t, 1, top[0].Rank)
		assert.Equal(t, "c", top[1].UserID)
		assert.Equal(t, 2, top[1].Rank)
		assert.Equal(t, "c", top[1].Username)

		ahead, err := lb.CountAhead(ctx, 2, 10)
		require.NoError(t, err)
		assert.Zero(t, ahead)

		ahead, err = lb.CountAhead(ctx, 1, 99)
		require.NoError(t, err)
		assert.Equal(t, 2, ahead)
		return nil
	})
	require.NoError(t, err)
}

func TestLeaderboard_TopMatchesAll(t *testing.T) {
	s := NewStore()
	seedUsers(t, s, "a", "b")

	err := s.WithTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		lb := tx.Leaderboard()
		require.NoError(t, lb.Upsert(ctx, "a", 1, 5, now))
		require.NoError(t, lb.Upsert(ctx, "b", 3, 5, now))
		_, err := lb.RecomputeRanks(ctx)
		require.NoError(t, err)

		all, err := lb.All(ctx)
		require.NoError(t, err)
		top, err := lb.Top(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, all, top)
		require.Len(t, top, 2)
		assert.Equal(t, "b", top[0].UserID)
		return nil
	})
	require.NoError(t, err)
}

func TestFriendships(t *testing.T) {
	s := NewStore()
	seedUsers(t, s, "alice", "bob")
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Friendships().Create(ctx, &models.Friendship{
			ID: "f1", UserID: "alice", FriendID: "bob", Status: models.FriendshipPending, CreatedAt: now, UpdatedAt: now,
		})
	})
	require.NoError(t, err)

	err = s.ReadOnly(ctx, func(ctx context.Context, tx repository.Tx) error {
		f, err := tx.Friendships().FindBetween(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.Equal(t, "f1", f.ID)

		_, err = tx.Friendships().GetPendingRequest(ctx, "f1", "alice")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		incoming, err := tx.Friendships().ListIncoming(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, incoming, 1)
		assert.Equal(t, "alice", incoming[0].Username)
		return nil
	})
	require.NoError(t, err)

	err = s.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Friendships().Accept(ctx, "f1", now)
	})
	require.NoError(t, err)

	err = s.ReadOnly(ctx, func(ctx context.Context, tx repository.Tx) error {
		for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
			friends, err := tx.Friendships().ListFriends(ctx, pair[0])
			require.NoError(t, err)
			require.Len(t, friends, 1)
			assert.Equal(t, pair[1], friends[0].ID)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestCanceledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithTx(ctx, func(context.Context, repository.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}
