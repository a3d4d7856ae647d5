package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	appconfig "meditation-backend/internal/config"
	"meditation-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// ObjectPutter uploads one object to a bucket
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SnapshotSource returns the full ranked leaderboard
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]models.LeaderboardEntry, error)
}

// LeaderboardSnapshot is the archived document
type LeaderboardSnapshot struct {
	TakenAt time.Time                 `json:"taken_at"`
	Entries []models.LeaderboardEntry `json:"entries"`
}

// ArchiveService writes leaderboard snapshots to object storage
type ArchiveService struct {
	source SnapshotSource
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewArchiveService creates an archive service backed by S3 or an
// S3-compatible endpoint
func NewArchiveService(ctx context.Context, source SnapshotSource, cfg appconfig.ArchiveConfig) (*ArchiveService, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewArchiveServiceWithClient(source, client, cfg.Bucket, cfg.Prefix), nil
}

// NewArchiveServiceWithClient creates an archive service over an existing client
func NewArchiveServiceWithClient(source SnapshotSource, client ObjectPutter, bucket, prefix string) *ArchiveService {
	return &ArchiveService{
		source: source,
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

// Archive uploads the current leaderboard and returns the object key
func (s *ArchiveService) Archive(ctx context.Context) (string, error) {
	entries, err := s.source.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	takenAt := s.now().UTC()
	body, err := json.Marshal(LeaderboardSnapshot{TakenAt: takenAt, Entries: entries})
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := s.objectKey(takenAt)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	log.Info().Str("bucket", s.bucket).Str("key", key).Int("entries", len(entries)).Msg("Leaderboard snapshot archived")
	return key, nil
}

// objectKey is {prefix}/YYYY/MM/DD/{unix}.json
func (s *ArchiveService) objectKey(t time.Time) string {
	return path.Join(s.prefix, t.Format("2006/01/02"), fmt.Sprintf("%d.json", t.Unix()))
}
