package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/middleware"
	"meditation-backend/internal/models"
	"meditation-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// LeaderboardHandler handles leaderboard HTTP requests
type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// LeaderboardResponse is the top of the leaderboard plus the caller's rank.
// UserRank is null when the caller has no entry yet.
type LeaderboardResponse struct {
	Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	UserRank    *int                      `json:"user_rank"`
}

// Top handles GET /api/v1/leaderboard?limit=n
func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.leaderboardService.Top(ctx, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get leaderboard")
		respondServiceError(w, err, "Failed to get leaderboard")
		return
	}

	resp := LeaderboardResponse{Leaderboard: entries}
	rank, err := h.leaderboardService.UserRank(ctx, userID)
	switch {
	case err == nil:
		resp.UserRank = &rank.Rank
	case !errors.Is(err, apperrors.ErrNotFound):
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user rank")
		respondServiceError(w, err, "Failed to get leaderboard")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/v1/leaderboard/me
func (h *LeaderboardHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	rank, err := h.leaderboardService.UserRank(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user rank")
		respondServiceError(w, err, "Failed to get user rank")
		return
	}

	respondJSON(w, http.StatusOK, rank)
}
