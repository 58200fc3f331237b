package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"reasoning_backend/platform/llm"
	"reasoning_backend/reasoning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOracle struct {
	down bool
}

func (o *stubOracle) Baseline() []reasoning.Message {
	return []reasoning.Message{{Role: reasoning.RoleSystem, Content: "be logical"}}
}

func (o *stubOracle) Generate(_ context.Context, conv []reasoning.Message, params reasoning.GenerateParams) (*reasoning.Completion, error) {
	if o.down {
		return nil, errors.New("oracle down")
	}
	last := conv[len(conv)-1].Content
	switch {
	case strings.Contains(last, "strict logic grader"):
		return &reasoning.Completion{Content: "1.0"}, nil
	case params.RepeatPenalty != nil && *params.RepeatPenalty == reasoning.RepeatPenaltyNone:
		return &reasoning.Completion{Content: "SOLVED"}, nil
	default:
		return &reasoning.Completion{Content: "solution: 4"}, nil
	}
}

func runCLI(t *testing.T, oracle reasoning.Oracle, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "stub-model")
	t.Setenv("LOG_LEVEL", "error")

	var seen llm.ProviderConfig
	orig := newOracle
	newOracle = func(ctx context.Context, pc llm.ProviderConfig) (reasoning.Oracle, error) {
		seen = pc
		return oracle, nil
	}
	t.Cleanup(func() { newOracle = orig })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	assert.Equal(t, "stub-model", seen.Model)
	return stdout.String(), stderr.String(), err
}

func TestSolveCommand_JSON(t *testing.T) {
	out, _, err := runCLI(t, &stubOracle{}, "solve", "--json", "--progress=false", "--breadth", "1", "--retries", "0", "what", "is", "2+2?")
	require.NoError(t, err)

	var res struct {
		Solved     bool                `json:"solved"`
		Attempts   int                 `json:"attempts"`
		Transcript []reasoning.Message `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Solved)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, []reasoning.Message{
		{Role: reasoning.RoleUser, Content: "what is 2+2?"},
		{Role: reasoning.RoleAssistant, Content: "solution: 4"},
	}, res.Transcript)
}

func TestSolveCommand_TextWithProgress(t *testing.T) {
	out, progress, err := runCLI(t, &stubOracle{}, "solve", "--json=false", "--progress", "--breadth", "1", "--retries", "0", "2+2?")
	require.NoError(t, err)

	assert.Contains(t, out, "[1] assistant: solution: 4")
	assert.Contains(t, out, "Solved in 1 attempt(s)")
	assert.Contains(t, progress, "attempt 1: depth")
	assert.Contains(t, progress, "solved at level 1")
}

func TestSolveCommand_NotSolved(t *testing.T) {
	out, _, err := runCLI(t, &stubOracle{down: true}, "solve", "--json=false", "--progress=false", "--breadth", "1", "--retries", "0", "2+2?")
	require.ErrorIs(t, err, errNotSolved)
	assert.Contains(t, out, "No verified solution after 1 attempt(s)")
}
