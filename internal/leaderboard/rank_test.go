package leaderboard

import (
	"testing"

	"meditation-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func entry(id string, streak, minutes int) models.LeaderboardEntry {
	return models.LeaderboardEntry{UserID: id, StreakCount: streak, TotalMinutes: minutes}
}

func TestAssignRanks(t *testing.T) {
	entries := []models.LeaderboardEntry{
		entry("c", 3, 10),
		entry("a", 5, 0),
		entry("d", 3, 10),
		entry("b", 3, 40),
		entry("e", 0, 100),
	}

	AssignRanks(entries)

	var order []string
	for i, e := range entries {
		order = append(order, e.UserID)
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, order)
}

func TestAssignRanks_OrderInvariant(t *testing.T) {
	entries := []models.LeaderboardEntry{
		entry("u1", 1, 5), entry("u2", 7, 1), entry("u3", 7, 1), entry("u4", 2, 50), entry("u5", 7, 9),
	}
	AssignRanks(entries)

	for i := 1; i < len(entries); i++ {
		assert.False(t, Ahead(entries[i], entries[i-1]), "%s ranked below %s", entries[i-1].UserID, entries[i].UserID)
	}
}

func TestRankOf(t *testing.T) {
	entries := []models.LeaderboardEntry{
		entry("a", 5, 0),
		entry("b", 3, 40),
		entry("c", 3, 10),
		entry("d", 3, 10),
	}

	assert.Equal(t, 1, RankOf(entries, entries[0]))
	assert.Equal(t, 2, RankOf(entries, entries[1]))
	// ties share a rank
	assert.Equal(t, 3, RankOf(entries, entries[2]))
	assert.Equal(t, 3, RankOf(entries, entries[3]))
	assert.Equal(t, 5, RankOf(entries, entry("z", 0, 0)))
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: -1, want: DefaultTopLimit},
		{in: 0, want: DefaultTopLimit},
		{in: 1, want: 1},
		{in: 50, want: 50},
		{in: 100, want: 100},
		{in: 101, want: MaxTopLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.in), "ClampLimit(%d)", tt.in)
	}
}
