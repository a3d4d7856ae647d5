package handlers

import (
	"context"
	"net/http"
	"time"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/middleware"
	"meditation-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// SessionHandler handles meditation session HTTP requests
type SessionHandler struct {
	sessionService *services.SessionService
	maxRetries     int
	retryBackoff   time.Duration
}

// NewSessionHandler creates a new session handler. A completion that loses
// a serialization conflict is retried up to maxRetries more times.
func NewSessionHandler(sessionService *services.SessionService, maxRetries int, retryBackoff time.Duration) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		maxRetries:     maxRetries,
		retryBackoff:   retryBackoff,
	}
}

// CompleteSessionRequest represents the request body for a finished session
type CompleteSessionRequest struct {
	Duration int `json:"duration"`
}

// Complete handles POST /api/v1/sessions
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CompleteSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Duration == 0 {
		respondError(w, "duration is required", http.StatusBadRequest)
		return
	}

	result, err := h.completeWithRetry(ctx, userID, req.Duration)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Int("duration", req.Duration).
			Msg("Failed to complete session")
		respondServiceError(w, err, "Failed to complete session")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) completeWithRetry(ctx context.Context, userID string, duration int) (*services.CompletionResult, error) {
	for attempt := 0; ; attempt++ {
		result, err := h.sessionService.Complete(ctx, userID, duration)
		if err == nil || !apperrors.IsRetryable(err) || attempt >= h.maxRetries {
			return result, err
		}

		log.Warn().
			Err(err).
			Str("user_id", userID).
			Int("attempt", attempt+1).
			Msg("Session completion conflicted, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(h.retryBackoff * time.Duration(attempt+1)):
		}
	}
}
