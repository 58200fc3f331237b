package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"reasoning_backend/pkg/logging"
	"reasoning_backend/reasoning"

	"github.com/sashabaranov/go-openai"
)

// OpenAIOracle talks to the OpenAI chat API or any server that speaks it.
type OpenAIOracle struct {
	client   *openai.Client
	model    string
	baseline []reasoning.Message
	budget   ContextBudget
}

func NewOpenAIOracle(pc ProviderConfig) (*OpenAIOracle, error) {
	if pc.APIKey == "" && pc.BaseURL == "" {
		return nil, fmt.Errorf("openai oracle needs an API key or a base URL")
	}
	if pc.Model == "" {
		return nil, fmt.Errorf("openai oracle needs a model")
	}
	cfg := openai.DefaultConfig(pc.APIKey)
	if pc.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(pc.BaseURL, "/")
	}
	if pc.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: pc.Timeout}
	}
	logging.Logger.Info("Initializing OpenAI oracle", "model", pc.Model, "baseURL", cfg.BaseURL)
	return &OpenAIOracle{
		client:   openai.NewClientWithConfig(cfg),
		model:    pc.Model,
		baseline: baselineFor(pc.SystemPrompt),
		budget:   ContextBudget{ContextTokens: pc.ContextTokens, AnswerTokens: pc.AnswerTokens},
	}, nil
}

func (o *OpenAIOracle) Baseline() []reasoning.Message {
	return reasoning.CloneMessages(o.baseline)
}

func (o *OpenAIOracle) Generate(ctx context.Context, conversation []reasoning.Message, params reasoning.GenerateParams) (*reasoning.Completion, error) {
	conv := o.budget.Fit(conversation)
	messages := make([]openai.ChatCompletionMessage, 0, len(conv))
	for _, m := range conv {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: float32(params.Temperature),
		MaxTokens:   answerTokens(params, o.budget.AnswerTokens),
	}
	if params.RepeatPenalty != nil {
		req.FrequencyPenalty = float32(frequencyPenalty(*params.RepeatPenalty))
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	logging.Logger.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return &reasoning.Completion{
		Content:          resp.Choices[0].Message.Content,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
