package models

import "reasoning_backend/reasoning"

type SolveReq struct {
	UserID     string `json:"user_id"`
	Question   string `json:"question" validate:"required,max=4000"`
	Provider   string `json:"provider,omitempty" validate:"omitempty,oneof=openai gemini"`
	Model      string `json:"model,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	MaxBreadth int    `json:"max_breadth,omitempty" validate:"omitempty,min=1,max=16"`
	MaxDepth   int    `json:"max_depth,omitempty" validate:"omitempty,min=1,max=64"`
	MaxRetries *int   `json:"max_retries,omitempty" validate:"omitempty,min=0,max=5"`
}

type SolveRes struct {
	RunID      string              `json:"run_id"`
	Status     RunStatus           `json:"status"`
	Solved     bool                `json:"solved"`
	Attempts   int                 `json:"attempts"`
	Cached     bool                `json:"cached"`
	Transcript []reasoning.Message `json:"transcript"`
}

type EnqueueRes struct {
	RunID  string    `json:"run_id"`
	Status RunStatus `json:"status"`
}

type RunRes struct {
	Run        *ReasoningRun `json:"run"`
	ArchiveURL string        `json:"archive_url,omitempty"`
}

// SolveJob is what travels through the job queue. API keys never do.
type SolveJob struct {
	RunID   string   `json:"run_id"`
	Request SolveReq `json:"request"`
}
