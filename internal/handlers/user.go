package handlers

import (
	"net/http"

	"meditation-backend/internal/middleware"
	"meditation-backend/internal/models"
	"meditation-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username string `json:"username"`
}

// CreateUserResponse is a new user with its access token
type CreateUserResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.CreateUser(ctx, req.Username)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to create user")
		respondServiceError(w, err, "Failed to create user")
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("User created")

	respondJSON(w, http.StatusCreated, CreateUserResponse{User: user, Token: token})
}

// Me handles GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user")
		respondServiceError(w, err, "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
