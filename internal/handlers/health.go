package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Pinger checks that a dependency answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles GET /health
func Health(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			respondError(w, "datastore unavailable", http.StatusServiceUnavailable)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
