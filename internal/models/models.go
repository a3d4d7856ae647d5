package models

import "time"

// User represents a user and their aggregate meditation stats
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	CurrentStreak int       `json:"current_streak"`
	BestStreak    int       `json:"best_streak"`
	TotalMinutes  int       `json:"total_minutes"`
	CreatedAt     time.Time `json:"created_at"`
}

// Session represents one completed meditation. Sessions are never mutated.
type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	DurationSeconds int       `json:"duration_seconds"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Achievement represents a badge earned by a user. Title is unique per user.
type Achievement struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
}

// LeaderboardEntry is the cached ranking row of a user
type LeaderboardEntry struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	StreakCount  int       `json:"streak_count"`
	TotalMinutes int       `json:"total_minutes"`
	Rank         int       `json:"rank"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FriendshipStatus is the state of a friendship edge
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship represents a directed friend request between two users
type Friendship struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	FriendID  string           `json:"friend_id"`
	Status    FriendshipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DailyStat summarizes one calendar day of meditation
type DailyStat struct {
	Date     string `json:"date"`
	Day      string `json:"day"`
	Minutes  int    `json:"minutes"`
	Sessions int    `json:"sessions"`
}

// FriendRequest is an incoming pending request with the sender's name
type FriendRequest struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
}
