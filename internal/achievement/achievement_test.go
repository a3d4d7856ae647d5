package achievement

import (
	"context"
	"errors"
	"testing"
	"time"

	"meditation-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	held      map[string]bool
	failOn    string
	insertion int
}

func newFakeStore(titles ...string) *fakeStore {
	s := &fakeStore{held: make(map[string]bool)}
	for _, t := range titles {
		s.held[t] = true
	}
	return s
}

func (s *fakeStore) Exists(_ context.Context, _ string, title string) (bool, error) {
	return s.held[title], nil
}

func (s *fakeStore) Insert(_ context.Context, a *models.Achievement) (bool, error) {
	if a.Title == s.failOn {
		return false, errors.New("insert failed")
	}
	s.insertion++
	if s.held[a.Title] {
		return false, nil
	}
	s.held[a.Title] = true
	return true, nil
}

func titles(defs []Definition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Title)
	}
	return out
}

func TestQualifying(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		name   string
		count  int
		streak int
		want   []string
	}{
		{name: "nothing yet", count: 0, streak: 0, want: nil},
		{name: "first session", count: 1, streak: 1, want: []string{"First Step"}},
		{name: "three day streak", count: 3, streak: 3, want: []string{"First Step", "Three-Day Focus"}},
		{name: "seven of each", count: 7, streak: 7, want: []string{"First Step", "Week Warrior", "Three-Day Focus", "Week of Wisdom"}},
		{
			name:   "monthly master once",
			count:  30,
			streak: 30,
			want: []string{
				"First Step", "Week Warrior", "Monthly Master",
				"Three-Day Focus", "Week of Wisdom", "Fortnight of Flow", "Three Weeks of Tranquility",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Qualifying(tt.count, tt.streak)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestQualifying_MonthlyMasterFromStreakTable(t *testing.T) {
	got := NewEvaluator().Qualifying(29, 30)

	for _, d := range got {
		if d.Title == "Monthly Master" {
			assert.Equal(t, TriggerStreak, d.Trigger)
			return
		}
	}
	t.Fatal("Monthly Master not qualified")
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	e := NewEvaluator()

	t.Run("grants new titles", func(t *testing.T) {
		store := newFakeStore()
		granted, err := e.Evaluate(context.Background(), store, "u1", 1, 1, now)
		require.NoError(t, err)

		require.Len(t, granted, 1)
		assert.Equal(t, "First Step", granted[0].Title)
		assert.Equal(t, "Complete your first meditation", granted[0].Description)
		assert.Equal(t, "u1", granted[0].UserID)
		assert.Equal(t, now, granted[0].EarnedAt)
		assert.NotEmpty(t, granted[0].ID)
	})

	t.Run("skips held titles", func(t *testing.T) {
		store := newFakeStore("First Step")
		granted, err := e.Evaluate(context.Background(), store, "u1", 3, 3, now)
		require.NoError(t, err)

		require.Len(t, granted, 1)
		assert.Equal(t, "Three-Day Focus", granted[0].Title)
	})

	t.Run("idempotent", func(t *testing.T) {
		store := newFakeStore()
		first, err := e.Evaluate(context.Background(), store, "u1", 7, 7, now)
		require.NoError(t, err)
		assert.Len(t, first, 4)

		second, err := e.Evaluate(context.Background(), store, "u1", 7, 7, now)
		require.NoError(t, err)
		assert.NotNil(t, second)
		assert.Empty(t, second)
		assert.Equal(t, 4, store.insertion)
	})

	t.Run("monthly master granted once", func(t *testing.T) {
		store := newFakeStore()
		granted, err := e.Evaluate(context.Background(), store, "u1", 30, 30, now)
		require.NoError(t, err)

		n := 0
		for _, a := range granted {
			if a.Title == "Monthly Master" {
				n++
			}
		}
		assert.Equal(t, 1, n)
	})

	t.Run("insert failure aborts", func(t *testing.T) {
		store := newFakeStore()
		store.failOn = "Three-Day Focus"
		_, err := e.Evaluate(context.Background(), store, "u1", 3, 3, now)
		assert.Error(t, err)
	})
}

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	assert.Len(t, catalog, 10)
	assert.Equal(t, "First Step", catalog[0].Title)
	assert.Equal(t, "Centurion of Calm", catalog[len(catalog)-1].Title)
}
