package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticResolver map[string]string

func (r staticResolver) ResolveIdentity(token string) (string, error) {
	if id, ok := r[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

func TestAuthMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := AuthMiddleware(staticResolver{"good": "user-1"})(next)

	tests := []struct {
		name   string
		header string
		want   int
		userID string
	}{
		{name: "valid token", header: "Bearer good", want: http.StatusNoContent, userID: "user-1"},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", want: http.StatusUnauthorized},
		{name: "malformed", header: "Bearer", want: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.userID, seen)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	assert.Equal(t, "", GetUserID(context.Background()))
	assert.Equal(t, "u1", GetUserID(WithUserID(context.Background(), "u1")))
}
