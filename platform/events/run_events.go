package events

import (
	"context"
	"encoding/json"
	"time"

	"reasoning_backend/models"
	"reasoning_backend/pkg/logging"

	"github.com/redis/go-redis/v9"
)

const runEventChannelPrefix = "reasoning:runs:"

func RunEventChannel(runID string) string {
	return runEventChannelPrefix + runID
}

type EventPublisher struct {
	redisClient *redis.Client
}

func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	return &EventPublisher{redisClient: redisClient}
}

func (p *EventPublisher) PublishRunEvent(ctx context.Context, event *models.RunEvent) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		logging.Logger.Error("fail PublishRunEvent", "error", err)
		return err
	}
	if err := p.redisClient.Publish(ctx, RunEventChannel(event.RunID), string(data)).Err(); err != nil {
		logging.Logger.Error("fail PublishRunEvent", "error", err)
		return err
	}
	logging.Logger.Debug("PublishRunEvent", "runID", event.RunID, "type", event.Event.Type, "status", event.Status)
	return nil
}

// SubscribeRunEvents streams the events of one run until ctx is done.
func (p *EventPublisher) SubscribeRunEvents(ctx context.Context, runID string) (<-chan *models.RunEvent, error) {
	pubsub := p.redisClient.Subscribe(ctx, RunEventChannel(runID))
	if _, err := pubsub.Receive(ctx); err != nil {
		logging.Logger.Error("fail SubscribeRunEvents", "error", err)
		return nil, err
	}
	ch := make(chan *models.RunEvent, 100)

	go func() {
		defer close(ch)
		defer func(pubsub *redis.PubSub) {
			if err := pubsub.Close(); err != nil {
				logging.Logger.Error("fail SubscribeRunEvents close", "error", err)
			}
		}(pubsub)

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event models.RunEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logging.Logger.Error("Failed to unmarshal event", "error", err)
					continue
				}

				select {
				case ch <- &event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
