package reasoning

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn handed to the oracle.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Repetition penalties in the llama.cpp convention: 1.0 disables the penalty.
const (
	RepeatPenaltyNormal = 1.1
	RepeatPenaltyNone   = 1.0
)

type GenerateParams struct {
	Temperature float64
	// MaxTokens caps the completion length; 0 lets the oracle decide.
	MaxTokens int
	// RepeatPenalty is nil when the oracle default should apply.
	RepeatPenalty *float64
}

type Completion struct {
	Content          string `json:"content"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Oracle is a stateless text generator. Every call sees only the conversation it is given.
type Oracle interface {
	Generate(ctx context.Context, conversation []Message, params GenerateParams) (*Completion, error)
	// Baseline returns the pre-seeded conversation (system prompt and prior turns).
	Baseline() []Message
}

// CloneMessages returns an independent copy of msgs. Message holds only values,
// so copying the slice is a deep copy.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

func penalty(v float64) *float64 {
	return &v
}
