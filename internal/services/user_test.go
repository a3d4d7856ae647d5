package services

import (
	"context"
	"testing"
	"time"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/repository/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewUserService(memory.NewStore(), "secret", time.Hour)

	token, err := svc.GenerateJWT("user-1")
	require.NoError(t, err)

	userID, err := svc.ResolveIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestResolveIdentity_Rejects(t *testing.T) {
	svc := NewUserService(memory.NewStore(), "secret", time.Hour)
	other := NewUserService(memory.NewStore(), "other-secret", time.Hour)

	foreign, err := other.GenerateJWT("user-1")
	require.NoError(t, err)

	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	expiring, err := svc.GenerateJWT("user-1")
	require.NoError(t, err)
	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": issued.Add(10 * time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"wrong secret":    foreign,
		"expired":         expiring,
		"missing user_id": noUser,
		"garbage":         "not-a-token",
		"empty":           "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ResolveIdentity(token)
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})
	}
}

func TestCreateUser(t *testing.T) {
	svc := NewUserService(memory.NewStore(), "secret", time.Hour)
	ctx := context.Background()

	user, token, err := svc.CreateUser(ctx, "  alice  ")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.ID)

	userID, err := svc.ResolveIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	_, _, err = svc.CreateUser(ctx, "alice")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	for _, name := range []string{"", "ab", "this-username-is-far-too-long-to-accept"} {
		_, _, err = svc.CreateUser(ctx, name)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, name)
	}

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)

	_, err = svc.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
