package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reasoning_backend/models"
	"reasoning_backend/platform/redis"
)

const SolveQueue = "reasoning:solve"

// MessageQueue is a FIFO of JSON strings, normally a redis list.
type MessageQueue interface {
	PushToQueue(ctx context.Context, queueName string, value interface{}) error
	PopFromQueue(ctx context.Context, queueName string, timeout time.Duration) (string, error)
}

type MessageQueueService struct {
	MQ MessageQueue
}

func NewMessageService(mq MessageQueue) *MessageQueueService {
	return &MessageQueueService{MQ: mq}
}

func (mq *MessageQueueService) PushJob(ctx context.Context, job models.SolveJob) error {
	if job.RunID == "" {
		return fmt.Errorf("job without run id")
	}
	job.Request.APIKey = ""
	return mq.MQ.PushToQueue(ctx, SolveQueue, job)
}

// PopJob waits up to timeout. It returns nil, nil when nothing arrived.
func (mq *MessageQueueService) PopJob(ctx context.Context, timeout time.Duration) (*models.SolveJob, error) {
	raw, err := mq.MQ.PopFromQueue(ctx, SolveQueue, timeout)
	if err != nil {
		if errors.Is(err, redis.ErrQueueEmpty) {
			return nil, nil
		}
		return nil, err
	}
	var job models.SolveJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}
