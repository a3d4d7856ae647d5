package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/leaderboard"
	"meditation-backend/internal/models"
)

type userStore struct{ st *state }

func (s *userStore) Create(_ context.Context, user *models.User) error {
	if _, ok := s.st.users[user.ID]; ok {
		return apperrors.New("memory.CreateUser", apperrors.ErrAlreadyExists, "user already exists")
	}
	for _, u := range s.st.users {
		if u.Username == user.Username {
			return apperrors.New("memory.CreateUser", apperrors.ErrAlreadyExists, "username already taken")
		}
	}
	s.st.users[user.ID] = *user
	return nil
}

func (s *userStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.st.users[id]
	if !ok {
		return nil, apperrors.New("memory.GetUser", apperrors.ErrNotFound, "user not found")
	}
	return &u, nil
}

func (s *userStore) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	return s.GetByID(ctx, id)
}

func (s *userStore) UpdateStats(_ context.Context, user *models.User) error {
	u, ok := s.st.users[user.ID]
	if !ok {
		return apperrors.New("memory.UpdateStats", apperrors.ErrNotFound, "user not found")
	}
	u.CurrentStreak = user.CurrentStreak
	u.BestStreak = user.BestStreak
	u.TotalMinutes = user.TotalMinutes
	s.st.users[user.ID] = u
	return nil
}

type sessionStore struct{ st *state }

func (s *sessionStore) Append(_ context.Context, session *models.Session) error {
	s.st.sessions[session.UserID] = append(s.st.sessions[session.UserID], *session)
	return nil
}

func (s *sessionStore) ListByUser(_ context.Context, userID string) ([]models.Session, error) {
	return newestFirst(s.st.sessions[userID], time.Time{}), nil
}

func (s *sessionStore) ListByUserSince(_ context.Context, userID string, from time.Time) ([]models.Session, error) {
	return newestFirst(s.st.sessions[userID], from), nil
}

func (s *sessionStore) CountByUser(_ context.Context, userID string) (int, error) {
	return len(s.st.sessions[userID]), nil
}

func newestFirst(list []models.Session, from time.Time) []models.Session {
	out := make([]models.Session, 0, len(list))
	for _, sess := range list {
		if !sess.CompletedAt.Before(from) {
			out = append(out, sess)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Session) int {
		if c := b.CompletedAt.Compare(a.CompletedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out
}

type achievementStore struct{ st *state }

func (s *achievementStore) Exists(_ context.Context, userID, title string) (bool, error) {
	_, ok := s.st.achievements[userID][title]
	return ok, nil
}

func (s *achievementStore) Insert(_ context.Context, a *models.Achievement) (bool, error) {
	held := s.st.achievements[a.UserID]
	if held == nil {
		held = make(map[string]models.Achievement)
		s.st.achievements[a.UserID] = held
	}
	if _, ok := held[a.Title]; ok {
		return false, nil
	}
	held[a.Title] = *a
	return true, nil
}

func (s *achievementStore) ListByUser(_ context.Context, userID string) ([]models.Achievement, error) {
	out := []models.Achievement{}
	for _, a := range s.st.achievements[userID] {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b models.Achievement) int {
		if c := a.EarnedAt.Compare(b.EarnedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Title, b.Title)
	})
	return out, nil
}

type leaderboardStore struct{ st *state }

// LockForRanking is a no-op; write transactions are already exclusive
func (s *leaderboardStore) LockForRanking(context.Context) error { return nil }

func (s *leaderboardStore) Upsert(_ context.Context, userID string, streakCount, totalMinutes int, now time.Time) error {
	e, ok := s.st.leaderboard[userID]
	if !ok {
		e = models.LeaderboardEntry{UserID: userID, Rank: len(s.st.leaderboard) + 1}
	}
	e.StreakCount = streakCount
	e.TotalMinutes = totalMinutes
	e.UpdatedAt = now
	s.st.leaderboard[userID] = e
	return nil
}

func (s *leaderboardStore) SyncFromUsers(_ context.Context, now time.Time) (int, error) {
	synced := 0
	for id, u := range s.st.users {
		if len(s.st.sessions[id]) == 0 {
			continue
		}
		e := s.st.leaderboard[id]
		e.UserID = id
		e.StreakCount = u.CurrentStreak
		e.TotalMinutes = u.TotalMinutes
		e.UpdatedAt = now
		s.st.leaderboard[id] = e
		synced++
	}
	return synced, nil
}

func (s *leaderboardStore) RecomputeRanks(context.Context) (int, error) {
	entries := s.entries()
	before := make(map[string]int, len(entries))
	for _, e := range entries {
		before[e.UserID] = e.Rank
	}

	leaderboard.AssignRanks(entries)

	changed := 0
	for _, e := range entries {
		if before[e.UserID] != e.Rank {
			changed++
		}
		stored := s.st.leaderboard[e.UserID]
		stored.Rank = e.Rank
		s.st.leaderboard[e.UserID] = stored
	}
	return changed, nil
}

func (s *leaderboardStore) Get(_ context.Context, userID string) (*models.LeaderboardEntry, error) {
	e, ok := s.st.leaderboard[userID]
	if !ok {
		return nil, apperrors.New("memory.GetEntry", apperrors.ErrNotFound, "leaderboard entry not found")
	}
	e.Username = s.st.users[userID].Username
	return &e, nil
}

func (s *leaderboardStore) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *leaderboardStore) All(context.Context) ([]models.LeaderboardEntry, error) {
	entries := s.entries()
	slices.SortFunc(entries, func(a, b models.LeaderboardEntry) int {
		return a.Rank - b.Rank
	})
	for i := range entries {
		entries[i].Username = s.st.users[entries[i].UserID].Username
	}
	return entries, nil
}

func (s *leaderboardStore) CountAhead(_ context.Context, streakCount, totalMinutes int) (int, error) {
	target := models.LeaderboardEntry{StreakCount: streakCount, TotalMinutes: totalMinutes}
	return leaderboard.RankOf(s.entries(), target) - 1, nil
}

func (s *leaderboardStore) entries() []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, 0, len(s.st.leaderboard))
	for _, e := range s.st.leaderboard {
		out = append(out, e)
	}
	return out
}

type friendshipStore struct{ st *state }

func (s *friendshipStore) Create(_ context.Context, f *models.Friendship) error {
	for _, existing := range s.st.friendships {
		if existing.UserID == f.UserID && existing.FriendID == f.FriendID {
			return apperrors.New("memory.CreateFriendship", apperrors.ErrAlreadyExists, "friendship already exists")
		}
	}
	s.st.friendships[f.ID] = *f
	return nil
}

func (s *friendshipStore) FindBetween(_ context.Context, userID, otherID string) (*models.Friendship, error) {
	for _, f := range s.st.friendships {
		if (f.UserID == userID && f.FriendID == otherID) || (f.UserID == otherID && f.FriendID == userID) {
			return &f, nil
		}
	}
	return nil, apperrors.New("memory.FindFriendship", apperrors.ErrNotFound, "friendship not found")
}

func (s *friendshipStore) GetPendingRequest(_ context.Context, requestID, friendID string) (*models.Friendship, error) {
	f, ok := s.st.friendships[requestID]
	if !ok || f.FriendID != friendID || f.Status != models.FriendshipPending {
		return nil, apperrors.New("memory.GetFriendship", apperrors.ErrNotFound, "friendship not found")
	}
	return &f, nil
}

func (s *friendshipStore) Accept(_ context.Context, requestID string, now time.Time) error {
	f, ok := s.st.friendships[requestID]
	if !ok {
		return apperrors.New("memory.AcceptFriendship", apperrors.ErrNotFound, "friendship not found")
	}
	f.Status = models.FriendshipAccepted
	f.UpdatedAt = now
	s.st.friendships[requestID] = f
	return nil
}

func (s *friendshipStore) Delete(_ context.Context, requestID string) error {
	if _, ok := s.st.friendships[requestID]; !ok {
		return apperrors.New("memory.DeleteFriendship", apperrors.ErrNotFound, "friendship not found")
	}
	delete(s.st.friendships, requestID)
	return nil
}

func (s *friendshipStore) ListFriends(_ context.Context, userID string) ([]models.User, error) {
	friends := []models.User{}
	for _, f := range s.st.friendships {
		if f.Status != models.FriendshipAccepted {
			continue
		}
		switch userID {
		case f.UserID:
			friends = append(friends, s.st.users[f.FriendID])
		case f.FriendID:
			friends = append(friends, s.st.users[f.UserID])
		}
	}
	slices.SortFunc(friends, func(a, b models.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return friends, nil
}

func (s *friendshipStore) ListIncoming(_ context.Context, userID string) ([]models.FriendRequest, error) {
	pending := []models.Friendship{}
	for _, f := range s.st.friendships {
		if f.FriendID == userID && f.Status == models.FriendshipPending {
			pending = append(pending, f)
		}
	}
	slices.SortFunc(pending, func(a, b models.Friendship) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	requests := make([]models.FriendRequest, 0, len(pending))
	for _, f := range pending {
		requests = append(requests, models.FriendRequest{
			RequestID: f.ID,
			UserID:    f.UserID,
			Username:  s.st.users[f.UserID].Username,
		})
	}
	return requests, nil
}
