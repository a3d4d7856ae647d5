package handlers

import (
	"net/http"

	"meditation-backend/internal/middleware"
	"meditation-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FriendHandler handles friendship HTTP requests
type FriendHandler struct {
	friendService *services.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// SendRequestBody represents the request body for a friend request
type SendRequestBody struct {
	FriendID string `json:"friend_id"`
}

// RespondRequestBody represents the request body for answering a request
type RespondRequestBody struct {
	Accept *bool `json:"accept"`
}

// List handles GET /api/v1/friends
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	list, err := h.friendService.List(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list friends")
		respondServiceError(w, err, "Failed to list friends")
		return
	}

	respondJSON(w, http.StatusOK, list)
}

// SendRequest handles POST /api/v1/friends/requests
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req SendRequestBody
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	f, err := h.friendService.SendRequest(ctx, userID, req.FriendID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("friend_id", req.FriendID).
			Msg("Failed to send friend request")
		respondServiceError(w, err, "Failed to send friend request")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friend_id", req.FriendID).
		Str("request_id", f.ID).
		Msg("Friend request sent")

	respondJSON(w, http.StatusCreated, f)
}

// Respond handles POST /api/v1/friends/requests/{request_id}
func (h *FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	requestID := chi.URLParam(r, "request_id")

	var req RespondRequestBody
	if err := decodeJSON(r, &req); err != nil || req.Accept == nil {
		respondError(w, "accept is required", http.StatusBadRequest)
		return
	}

	if err := h.friendService.Respond(ctx, userID, requestID, *req.Accept); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("request_id", requestID).
			Msg("Failed to respond to friend request")
		respondServiceError(w, err, "Failed to respond to friend request")
		return
	}

	status := "rejected"
	if *req.Accept {
		status = "accepted"
	}
	respondJSON(w, http.StatusOK, map[string]string{"request_id": requestID, "status": status})
}
