package handlers

import (
	"net/http"

	"meditation-backend/internal/middleware"
	"meditation-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// StatsHandler handles activity summary HTTP requests
type StatsHandler struct {
	statsService *services.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Weekly handles GET /api/v1/sessions/weekly
func (h *StatsHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	stats, err := h.statsService.Weekly(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get weekly stats")
		respondServiceError(w, err, "Failed to get weekly stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"weekly_stats": stats})
}

// DailyPrompt handles GET /api/v1/meditation/daily
func (h *StatsHandler) DailyPrompt(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.statsService.DailyPrompt())
}
