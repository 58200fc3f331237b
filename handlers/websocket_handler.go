package handlers

import (
	"context"
	"encoding/json"
	"time"

	"reasoning_backend/models"
	"reasoning_backend/pkg/logging"
	"reasoning_backend/reasoning"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type RunEventSubscriber interface {
	SubscribeRunEvents(ctx context.Context, runID string) (<-chan *models.RunEvent, error)
}

type RunLookup interface {
	GetRun(ctx context.Context, runID string) (*models.RunRes, error)
}

type WSHandler struct {
	subscriber RunEventSubscriber
	runs       RunLookup
}

func NewWSHandler(subscriber RunEventSubscriber, runs RunLookup) *WSHandler {
	return &WSHandler{subscriber: subscriber, runs: runs}
}

// finishedEvent returns the final event of a run that already ended, or nil.
func (h *WSHandler) finishedEvent(ctx context.Context, runID string) *models.RunEvent {
	if h.runs == nil {
		return nil
	}
	res, err := h.runs.GetRun(ctx, runID)
	if err != nil || res == nil || res.Run == nil {
		return nil
	}
	run := res.Run
	if run.Status != models.RunSolved && run.Status != models.RunFailed {
		return nil
	}
	return &models.RunEvent{
		RunID:     runID,
		Event:     reasoning.Event{Reason: run.Error},
		Status:    run.Status,
		Timestamp: time.Now(),
	}
}

func (h *WSHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Not a websocket request"})
}

// HandleRunEvents streams one run's progress and closes after its final status.
func (h *WSHandler) HandleRunEvents(c *websocket.Conn) {
	runID := c.Params("run_id")
	logging.Logger.Info("WebSocket connected", "runID", runID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventChan, err := h.subscriber.SubscribeRunEvents(ctx, runID)
	if err != nil {
		logging.Logger.Error("Failed to subscribe to events", "error", err)
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"Failed to subscribe"}`))
		return
	}
	err = c.WriteJSON(fiber.Map{
		"type":    "connected",
		"message": "WebSocket connected successfully",
		"run_id":  runID,
	})
	if err != nil {
		return
	}

	// subscribed first, so a run finishing now is either seen here or on the channel
	if done := h.finishedEvent(ctx, runID); done != nil {
		if err := c.WriteJSON(done); err != nil {
			logging.Logger.Error("Failed to send WebSocket message", "error", err)
		}
		logging.Logger.Info("Run already finished, closing WebSocket", "runID", runID, "status", done.Status)
		return
	}

	// the client only ever closes; a failed read ends the stream
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok || event == nil {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logging.Logger.Error("Failed to encode event", "error", err)
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Logger.Error("Failed to send WebSocket message", "error", err)
				return
			}
			if event.Status == models.RunSolved || event.Status == models.RunFailed {
				logging.Logger.Info("Run finished, closing WebSocket", "runID", runID, "status", event.Status)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
