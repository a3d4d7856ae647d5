package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/models"
	"meditation-backend/internal/repository"

	"github.com/google/uuid"
)

// FriendNotifier is told about friendship changes after they commit
type FriendNotifier interface {
	NotifyFriendRequest(friendID string, request models.FriendRequest)
	NotifyFriendAccepted(userID string, friend models.User)
}

// FriendList is a user's accepted friends and incoming requests
type FriendList struct {
	Friends  []models.User          `json:"friends"`
	Requests []models.FriendRequest `json:"friend_requests"`
}

// FriendService handles friendship-related business logic
type FriendService struct {
	store    repository.Store
	notifier FriendNotifier
	now      func() time.Time
}

// NewFriendService creates a new friend service. notifier may be nil.
func NewFriendService(store repository.Store, notifier FriendNotifier) *FriendService {
	return &FriendService{store: store, notifier: notifier, now: time.Now}
}

// SendRequest creates a pending request from userID to friendID
func (s *FriendService) SendRequest(ctx context.Context, userID, friendID string) (*models.Friendship, error) {
	if friendID == "" {
		return nil, apperrors.New("services.SendRequest", apperrors.ErrInvalidInput, "friend_id is required")
	}
	if userID == friendID {
		return nil, apperrors.New("services.SendRequest", apperrors.ErrInvalidInput, "cannot befriend yourself")
	}

	now := s.now().UTC()
	f := &models.Friendship{
		ID:        uuid.New().String(),
		UserID:    userID,
		FriendID:  friendID,
		Status:    models.FriendshipPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var sender *models.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if sender, err = tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		if _, err := tx.Users().GetByID(ctx, friendID); err != nil {
			return err
		}

		existing, err := tx.Friendships().FindBetween(ctx, userID, friendID)
		switch {
		case err == nil:
			if existing.Status == models.FriendshipAccepted {
				return apperrors.New("services.SendRequest", apperrors.ErrAlreadyExists, "already friends")
			}
			return apperrors.New("services.SendRequest", apperrors.ErrAlreadyExists, "friend request already pending")
		case !errors.Is(err, apperrors.ErrNotFound):
			return err
		}

		return tx.Friendships().Create(ctx, f)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send friend request: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyFriendRequest(friendID, models.FriendRequest{
			RequestID: f.ID,
			UserID:    userID,
			Username:  sender.Username,
		})
	}
	return f, nil
}

// Respond accepts or rejects a pending request addressed to userID.
// A rejected request is removed so it can be sent again later.
func (s *FriendService) Respond(ctx context.Context, userID, requestID string, accept bool) error {
	var request *models.Friendship
	var responder *models.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if request, err = tx.Friendships().GetPendingRequest(ctx, requestID, userID); err != nil {
			return err
		}
		if !accept {
			return tx.Friendships().Delete(ctx, requestID)
		}
		if responder, err = tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		return tx.Friendships().Accept(ctx, requestID, s.now().UTC())
	})
	if err != nil {
		return fmt.Errorf("failed to respond to friend request: %w", err)
	}

	if accept && s.notifier != nil {
		s.notifier.NotifyFriendAccepted(request.UserID, *responder)
	}
	return nil
}

// List returns accepted friends in both directions and incoming requests
func (s *FriendService) List(ctx context.Context, userID string) (*FriendList, error) {
	list := &FriendList{}
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if list.Friends, err = tx.Friendships().ListFriends(ctx, userID); err != nil {
			return err
		}
		list.Requests, err = tx.Friendships().ListIncoming(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return list, nil
}
