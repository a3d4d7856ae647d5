package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"meditation-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (p *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	p.body = body
	return &s3.PutObjectOutput{}, nil
}

type staticSnapshot []models.LeaderboardEntry

func (s staticSnapshot) Snapshot(context.Context) ([]models.LeaderboardEntry, error) {
	return s, nil
}

func TestArchive(t *testing.T) {
	entries := staticSnapshot{
		{UserID: "u1", Username: "alice", StreakCount: 3, TotalMinutes: 15, Rank: 1},
		{UserID: "u2", Username: "bob", StreakCount: 1, TotalMinutes: 5, Rank: 2},
	}
	putter := &fakePutter{}
	svc := NewArchiveServiceWithClient(entries, putter, "snapshots", "leaderboard")
	takenAt := time.Date(2024, 3, 10, 4, 5, 6, 0, time.UTC)
	svc.now = func() time.Time { return takenAt }

	key, err := svc.Archive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "leaderboard/2024/03/10/1710043506.json", key)
	assert.Equal(t, "snapshots", aws.ToString(putter.input.Bucket))
	assert.Equal(t, key, aws.ToString(putter.input.Key))
	assert.Equal(t, "application/json", aws.ToString(putter.input.ContentType))

	var snapshot LeaderboardSnapshot
	require.NoError(t, json.Unmarshal(putter.body, &snapshot))
	assert.True(t, takenAt.Equal(snapshot.TakenAt))
	require.Len(t, snapshot.Entries, 2)
	assert.Equal(t, "alice", snapshot.Entries[0].Username)
}

func TestArchive_UploadFailure(t *testing.T) {
	svc := NewArchiveServiceWithClient(staticSnapshot{}, &fakePutter{err: errors.New("denied")}, "b", "p")

	_, err := svc.Archive(context.Background())
	assert.Error(t, err)
}

func TestArchive_FromLeaderboard(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "alice")
	f.completeOn(t, user.ID, day0, 300)

	putter := &fakePutter{}
	_, err := NewArchiveServiceWithClient(f.board, putter, "b", "p").Archive(context.Background())
	require.NoError(t, err)

	var snapshot LeaderboardSnapshot
	require.NoError(t, json.Unmarshal(putter.body, &snapshot))
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, user.ID, snapshot.Entries[0].UserID)
}
