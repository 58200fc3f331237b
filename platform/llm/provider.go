package llm

import (
	"context"
	"fmt"
	"time"

	"reasoning_backend/reasoning"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ProviderConfig selects and configures one oracle backend.
type ProviderConfig struct {
	Provider string
	Model    string
	APIKey   string
	// BaseURL points the OpenAI client at a compatible server such as llama.cpp.
	BaseURL       string
	SystemPrompt  string
	ContextTokens int
	AnswerTokens  int
	Timeout       time.Duration
}

// NewOracle builds the provider's oracle wrapped with request metrics.
func NewOracle(ctx context.Context, pc ProviderConfig) (reasoning.Oracle, error) {
	var (
		oracle reasoning.Oracle
		err    error
	)
	switch pc.Provider {
	case ProviderOpenAI, "":
		oracle, err = NewOpenAIOracle(pc)
	case ProviderGemini:
		oracle, err = NewGeminiOracle(ctx, pc)
	default:
		return nil, fmt.Errorf("invalid provider %q", pc.Provider)
	}
	if err != nil {
		return nil, err
	}
	name := pc.Provider
	if name == "" {
		name = ProviderOpenAI
	}
	return NewInstrumentedOracle(oracle, name), nil
}

func baselineFor(systemPrompt string) []reasoning.Message {
	if systemPrompt == "" {
		return []reasoning.Message{}
	}
	return []reasoning.Message{{Role: reasoning.RoleSystem, Content: systemPrompt}}
}

func answerTokens(params reasoning.GenerateParams, fallback int) int {
	if params.MaxTokens > 0 {
		return params.MaxTokens
	}
	return fallback
}

// frequencyPenalty maps a llama.cpp style repetition penalty (1.0 = off) onto the
// OpenAI/Gemini frequency penalty range.
func frequencyPenalty(repeat float64) float64 {
	p := repeat - 1
	if p < 0 {
		return 0
	}
	if p > 2 {
		return 2
	}
	return p
}
