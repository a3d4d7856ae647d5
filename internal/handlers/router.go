package handlers

import (
	"net/http"

	"meditation-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router bundles the handlers mounted by NewRouter
type Router struct {
	Health       http.HandlerFunc
	Auth         middleware.IdentityResolver
	Users        *UserHandler
	Sessions     *SessionHandler
	Stats        *StatsHandler
	Achievements *AchievementHandler
	Leaderboard  *LeaderboardHandler
	Friends      *FriendHandler
	WebSocket    *WebSocketHandler
}

// NewRouter builds the HTTP routes
func NewRouter(h Router) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", h.Users.CreateUser)
		r.Get("/meditation/daily", h.Stats.DailyPrompt)
		r.Get("/achievements/catalog", h.Achievements.Catalog)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(h.Auth))
			r.Get("/me", h.Users.Me)
			r.Post("/sessions", h.Sessions.Complete)
			r.Get("/sessions/weekly", h.Stats.Weekly)
			r.Get("/achievements", h.Achievements.List)
			r.Get("/leaderboard", h.Leaderboard.Top)
			r.Get("/leaderboard/me", h.Leaderboard.Me)
			r.Get("/friends", h.Friends.List)
			r.Post("/friends/requests", h.Friends.SendRequest)
			r.Post("/friends/requests/{request_id}", h.Friends.Respond)
		})
	})

	r.Get("/ws", h.WebSocket.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
