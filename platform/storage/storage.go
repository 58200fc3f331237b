package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"reasoning_backend/config"
	"reasoning_backend/pkg/logging"
	"reasoning_backend/utils"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const transcriptContentType = "application/json"

// Service archives finished transcripts as JSON objects.
type Service struct {
	Client           *minio.Client
	Bucket           string
	Region           string
	StorageType      string
	FileKeyGenerator *utils.FileKeyGenerator
}

func InitStorageService(cfg *config.Config) (*Service, error) {
	client, err := newClient(cfg)
	if err != nil {
		logging.Logger.Error("fail InitStorageService", "error", err)
		return nil, err
	}
	ss := &Service{
		Client:           client,
		Bucket:           cfg.BucketName,
		Region:           cfg.BucketRegion,
		StorageType:      cfg.StorageType,
		FileKeyGenerator: utils.NewFileKeyGenerator(utils.StrategyDateBased, "transcripts"),
	}
	if err := ss.EnsureBucketExists(); err != nil {
		logging.Logger.Error("fail InitStorageService", "error", err)
		return nil, err
	}
	logging.Logger.Info("Storage service initialized",
		"type", cfg.StorageType,
		"bucket", cfg.BucketName,
		"region", cfg.BucketRegion,
	)
	return ss, nil
}

func newClient(cfg *config.Config) (*minio.Client, error) {
	creds := credentials.NewStaticV4(cfg.BucketAccessID, cfg.BucketAccessKey, "")
	switch cfg.StorageType {
	case "minio":
		return minio.New(cfg.BucketEndpoint, &minio.Options{Creds: creds, Secure: cfg.UseSSL})
	case "s3":
		return minio.New("s3.amazonaws.com", &minio.Options{Creds: creds, Secure: true, Region: cfg.BucketRegion})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
}

func (ss *Service) EnsureBucketExists() error {
	ctx := context.Background()
	exists, err := ss.Client.BucketExists(ctx, ss.Bucket)
	if err != nil {
		logging.Logger.Error("fail EnsureBucketExists", "error", err)
		return err
	}
	if exists {
		logging.Logger.Info("Bucket already exists", "bucket", ss.Bucket)
		return nil
	}
	err = ss.Client.MakeBucket(ctx, ss.Bucket, minio.MakeBucketOptions{Region: ss.Region})
	if err != nil {
		if ss.StorageType == "s3" {
			logging.Logger.Warn("Could not create S3 bucket (might exist or no permission)",
				"bucket", ss.Bucket, "error", err)
			return nil
		}
		logging.Logger.Error("fail EnsureBucketExists", "error", err)
		return err
	}
	logging.Logger.Info("Bucket created successfully", "bucket", ss.Bucket)
	return nil
}

// PutTranscript stores data under a key derived from runID and returns the key.
func (ss *Service) PutTranscript(ctx context.Context, runID, userID string, data []byte) (string, error) {
	key := ss.FileKeyGenerator.GenerateFileKey(runID, userID, ".json")
	_, err := ss.Client.PutObject(ctx, ss.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: transcriptContentType})
	if err != nil {
		return "", fmt.Errorf("failed to put transcript %s: %w", key, err)
	}
	return key, nil
}

func (ss *Service) PresignedTranscriptURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	if expiration <= 0 {
		return "", fmt.Errorf("expiration must be positive")
	}
	presignedURL, err := ss.Client.PresignedGetObject(ctx, ss.Bucket, key, expiration, nil)
	if err != nil {
		logging.Logger.Error("fail PresignedTranscriptURL", "error", err)
		return "", err
	}
	return presignedURL.String(), nil
}

func (ss *Service) FileExists(ctx context.Context, key string) (bool, error) {
	_, err := ss.Client.StatObject(ctx, ss.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
