package llm

import (
	"context"
	"fmt"
	"net/http"

	"reasoning_backend/pkg/logging"
	"reasoning_backend/reasoning"

	"google.golang.org/genai"
)

type GeminiOracle struct {
	client   *genai.Client
	model    string
	baseline []reasoning.Message
	budget   ContextBudget
}

func NewGeminiOracle(ctx context.Context, pc ProviderConfig) (*GeminiOracle, error) {
	if pc.APIKey == "" {
		return nil, fmt.Errorf("gemini oracle needs an API key")
	}
	model := pc.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	cc := &genai.ClientConfig{
		APIKey:  pc.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if pc.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: pc.Timeout}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	logging.Logger.Info("Initializing Gemini oracle", "model", model)
	return &GeminiOracle{
		client:   client,
		model:    model,
		baseline: baselineFor(pc.SystemPrompt),
		budget:   ContextBudget{ContextTokens: pc.ContextTokens, AnswerTokens: pc.AnswerTokens},
	}, nil
}

func (o *GeminiOracle) Baseline() []reasoning.Message {
	return reasoning.CloneMessages(o.baseline)
}

func (o *GeminiOracle) Generate(ctx context.Context, conversation []reasoning.Message, params reasoning.GenerateParams) (*reasoning.Completion, error) {
	system, contents := toGeminiContents(o.budget.Fit(conversation))
	cfg := &genai.GenerateContentConfig{
		Temperature:     float32Ptr(params.Temperature),
		MaxOutputTokens: int32(answerTokens(params, o.budget.AnswerTokens)),
	}
	if system != nil {
		cfg.SystemInstruction = system
	}
	if params.RepeatPenalty != nil {
		cfg.FrequencyPenalty = float32Ptr(frequencyPenalty(*params.RepeatPenalty))
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("no response from Gemini")
	}
	out := &reasoning.Completion{Content: text}
	if resp.UsageMetadata != nil {
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// toGeminiContents moves system turns into a single system instruction; Gemini
// calls the assistant role "model".
func toGeminiContents(conv []reasoning.Message) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(conv))
	for _, m := range conv {
		switch m.Role {
		case reasoning.RoleSystem:
			if system == nil {
				system = genai.NewContentFromText(m.Content, genai.RoleUser)
			} else {
				system.Parts = append(system.Parts, genai.NewPartFromText(m.Content))
			}
		case reasoning.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return system, contents
}

func float32Ptr(v float64) *float32 {
	f := float32(v)
	return &f
}
