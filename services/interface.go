package services

import (
	"context"
	"time"

	"reasoning_backend/models"
	"reasoning_backend/platform/llm"
	"reasoning_backend/reasoning"
)

// RunEventPublisher fans run progress out to websocket subscribers.
type RunEventPublisher interface {
	PublishRunEvent(ctx context.Context, event *models.RunEvent) error
}

// TranscriptArchive keeps a durable copy of finished transcripts.
type TranscriptArchive interface {
	PutTranscript(ctx context.Context, runID, userID string, data []byte) (string, error)
	PresignedTranscriptURL(ctx context.Context, key string, expiration time.Duration) (string, error)
}

type JobQueue interface {
	PushJob(ctx context.Context, job models.SolveJob) error
	PopJob(ctx context.Context, timeout time.Duration) (*models.SolveJob, error)
}

// OracleFactory builds the oracle for one resolved provider profile.
type OracleFactory func(ctx context.Context, pc llm.ProviderConfig) (reasoning.Oracle, error)
