package services

import (
	"context"
	"testing"

	"meditation-backend/internal/apperrors"
	"meditation-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFriendNotifier struct {
	requests map[string][]models.FriendRequest
	accepted map[string][]models.User
}

func newRecordingFriendNotifier() *recordingFriendNotifier {
	return &recordingFriendNotifier{
		requests: make(map[string][]models.FriendRequest),
		accepted: make(map[string][]models.User),
	}
}

func (n *recordingFriendNotifier) NotifyFriendRequest(friendID string, request models.FriendRequest) {
	n.requests[friendID] = append(n.requests[friendID], request)
}

func (n *recordingFriendNotifier) NotifyFriendAccepted(userID string, friend models.User) {
	n.accepted[userID] = append(n.accepted[userID], friend)
}

func TestFriendRequestLifecycle(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	notifier := newRecordingFriendNotifier()
	svc := NewFriendService(f.store, notifier)
	ctx := context.Background()

	request, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPending, request.Status)
	require.Len(t, notifier.requests[bob.ID], 1)
	assert.Equal(t, "alice", notifier.requests[bob.ID][0].Username)

	list, err := svc.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list.Friends)
	require.Len(t, list.Requests, 1)
	assert.Equal(t, request.ID, list.Requests[0].RequestID)

	// only the addressee can answer
	err = svc.Respond(ctx, alice.ID, request.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.Respond(ctx, bob.ID, request.ID, true))
	require.Len(t, notifier.accepted[alice.ID], 1)
	assert.Equal(t, bob.ID, notifier.accepted[alice.ID][0].ID)

	for _, pair := range [][2]*models.User{{alice, bob}, {bob, alice}} {
		list, err := svc.List(ctx, pair[0].ID)
		require.NoError(t, err)
		require.Len(t, list.Friends, 1)
		assert.Equal(t, pair[1].ID, list.Friends[0].ID)
		assert.Empty(t, list.Requests)
	}

	_, err = svc.SendRequest(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestFriendRequest_Reject(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	svc := NewFriendService(f.store, nil)
	ctx := context.Background()

	request, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.SendRequest(ctx, bob.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	require.NoError(t, svc.Respond(ctx, bob.ID, request.ID, false))

	list, err := svc.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list.Requests)
	assert.Empty(t, list.Friends)

	// rejected requests may be sent again
	_, err = svc.SendRequest(ctx, alice.ID, bob.ID)
	assert.NoError(t, err)
}

func TestFriendRequest_Invalid(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	svc := NewFriendService(f.store, nil)
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.SendRequest(ctx, alice.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.SendRequest(ctx, alice.ID, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = svc.Respond(ctx, alice.ID, "missing", true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
