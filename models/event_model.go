package models

import (
	"time"

	"reasoning_backend/reasoning"
)

// RunEvent is one progress message of a run. Status is set only when the run
// itself changes state; search progress carries the engine event alone.
type RunEvent struct {
	RunID     string          `json:"run_id"`
	Event     reasoning.Event `json:"event"`
	Status    RunStatus       `json:"status,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
