package llm

import (
	"unicode/utf8"

	"reasoning_backend/reasoning"
)

// perMessageOverhead approximates the chat template tokens around each turn.
const perMessageOverhead = 4

// ContextBudget keeps prompts inside the model's context window while leaving room
// for the answer.
type ContextBudget struct {
	ContextTokens int
	AnswerTokens  int
}

func EstimateTokens(msgs []reasoning.Message) int {
	total := 0
	for _, m := range msgs {
		total += utf8.RuneCountInString(m.Content)/4 + utf8.RuneCountInString(string(m.Role))/4 + perMessageOverhead
	}
	return total
}

// Fit drops the oldest non-system turns until the estimate fits. System turns and
// the final turn are always kept. The input slice is not modified.
func (b ContextBudget) Fit(conv []reasoning.Message) []reasoning.Message {
	if b.ContextTokens <= 0 {
		return conv
	}
	limit := b.ContextTokens - b.AnswerTokens
	out := reasoning.CloneMessages(conv)
	for EstimateTokens(out) > limit {
		drop := -1
		for i := 0; i < len(out)-1; i++ {
			if out[i].Role != reasoning.RoleSystem {
				drop = i
				break
			}
		}
		if drop < 0 {
			break
		}
		out = append(out[:drop], out[drop+1:]...)
	}
	return out
}
