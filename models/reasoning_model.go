package models

import "time"

type RunStatus string

const (
	RunQueued  RunStatus = "queued"
	RunRunning RunStatus = "running"
	RunSolved  RunStatus = "solved"
	RunFailed  RunStatus = "failed"
)

// ReasoningRun is one search request and its outcome.
type ReasoningRun struct {
	ID           string          `gorm:"primaryKey" json:"id"`
	UserID       string          `gorm:"index" json:"user_id"`
	Question     string          `json:"question"`
	Status       RunStatus       `gorm:"index" json:"status"`
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	MaxBreadth   int             `json:"max_breadth"`
	MaxDepth     int             `json:"max_depth"`
	MaxRetries   int             `json:"max_retries"`
	Attempts     int             `json:"attempts"`
	FinalDepth   int             `json:"final_depth"`
	FinalBreadth int             `json:"final_breadth"`
	Nodes        int             `json:"nodes"`
	ArchiveKey   string          `json:"archive_key,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Steps        []ReasoningStep `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
}

// ReasoningStep is one transcript entry of a solved run, root first.
type ReasoningStep struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	RunID    string `gorm:"index" json:"-"`
	Position int    `json:"position"`
	Role     string `json:"role"`
	Content  string `json:"content"`
}
