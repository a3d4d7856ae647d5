package handlers

import (
	"net/http"

	"meditation-backend/internal/achievement"
	"meditation-backend/internal/middleware"
	"meditation-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AchievementHandler handles achievement HTTP requests
type AchievementHandler struct {
	sessionService *services.SessionService
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(sessionService *services.SessionService) *AchievementHandler {
	return &AchievementHandler{sessionService: sessionService}
}

// List handles GET /api/v1/achievements
func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	held, err := h.sessionService.Achievements(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list achievements")
		respondServiceError(w, err, "Failed to list achievements")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"achievements": held})
}

// Catalog handles GET /api/v1/achievements/catalog
func (h *AchievementHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"achievements": achievement.Catalog()})
}
