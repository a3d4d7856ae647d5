package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/models"
	"meditation-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 32
)

// UserService handles user identity and profile lookups
type UserService struct {
	store     repository.Store
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewUserService creates a new user service
func NewUserService(store repository.Store, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ResolveIdentity validates a JWT token and returns the user ID it names
func (s *UserService) ResolveIdentity(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", apperrors.Wrap("services.ResolveIdentity", apperrors.ErrUnauthorized, "invalid token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", apperrors.New("services.ResolveIdentity", apperrors.ErrUnauthorized, "invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", apperrors.New("services.ResolveIdentity", apperrors.ErrUnauthorized, "user_id not found in token")
	}

	return userID, nil
}

// CreateUser registers a user under a unique username and issues a token
func (s *UserService) CreateUser(ctx context.Context, username string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, "", apperrors.New("services.CreateUser", apperrors.ErrInvalidInput,
			fmt.Sprintf("username must be %d-%d characters", minUsernameLength, maxUsernameLength))
	}

	user := &models.User{
		ID:        uuid.New().String(),
		Username:  username,
		CreatedAt: s.now().UTC(),
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user *models.User
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
