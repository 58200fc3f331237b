package repository

import (
	"context"
	"errors"

	"reasoning_backend/models"
	"reasoning_backend/reasoning"
)

var ErrRunNotFound = errors.New("reasoning run not found")

type RunRepository interface {
	Create(ctx context.Context, run *models.ReasoningRun) error
	// GetByID loads the run with its steps in transcript order.
	GetByID(ctx context.Context, runID string) (*models.ReasoningRun, error)
	UpdateStatus(ctx context.Context, runID string, status models.RunStatus) error
	// Finish stores the outcome fields of run and replaces its steps with transcript.
	Finish(ctx context.Context, run *models.ReasoningRun, transcript []reasoning.Message) error
	SetArchiveKey(ctx context.Context, runID string, key string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.ReasoningRun, error)
}
