// Package leaderboard holds the ranking rules shared by every store.
//
// Two rank semantics coexist on purpose. Stored ranks (AssignRanks) are a
// row number: ties get distinct consecutive ranks ordered by user ID. The
// on-demand rank (RankOf) is one plus the number of entries strictly ahead,
// so tied users share a rank. Consumers may rely on either.
package leaderboard

import (
	"sort"

	"meditation-backend/internal/models"
)

const (
	DefaultTopLimit = 10
	MaxTopLimit     = 100
)

// Ahead reports whether a is strictly ahead of b: longer streak, or equal
// streak and more total minutes.
func Ahead(a, b models.LeaderboardEntry) bool {
	if a.StreakCount != b.StreakCount {
		return a.StreakCount > b.StreakCount
	}
	return a.TotalMinutes > b.TotalMinutes
}

// AssignRanks sorts entries into stored rank order and sets Rank to 1..N
func AssignRanks(entries []models.LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if Ahead(a, b) {
			return true
		}
		if Ahead(b, a) {
			return false
		}
		return a.UserID < b.UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// RankOf returns 1 + the number of entries strictly ahead of target
func RankOf(entries []models.LeaderboardEntry, target models.LeaderboardEntry) int {
	rank := 1
	for _, e := range entries {
		if Ahead(e, target) {
			rank++
		}
	}
	return rank
}

// ClampLimit normalizes a requested top-N size
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultTopLimit
	case n > MaxTopLimit:
		return MaxTopLimit
	default:
		return n
	}
}
