package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"reasoning_backend/platform/cache"
	"reasoning_backend/platform/llm"
	"reasoning_backend/reasoning"

	"github.com/spf13/cobra"
)

var errNotSolved = errors.New("no verified solution")

var (
	solveProvider string
	solveModel    string
	solveBreadth  int
	solveDepth    int
	solveRetries  int
	solveJSON     bool
	solveProgress bool

	// newOracle is swapped in tests.
	newOracle = llm.NewOracle

	solveCmd = &cobra.Command{
		Use:   "solve [question]",
		Short: "Search for a verified answer to one question and print the transcript",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSolve,
	}
)

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveProvider, "provider", "", "oracle provider (openai or gemini); defaults to LLM_PROVIDER")
	f.StringVar(&solveModel, "model", "", "model name; defaults to LLM_MODEL")
	f.IntVar(&solveBreadth, "breadth", 0, "beam width; defaults to BEAM_WIDTH")
	f.IntVar(&solveDepth, "depth", 0, "max depth; defaults to MAX_DEPTH")
	f.IntVar(&solveRetries, "retries", -1, "escalating retries after a failed attempt; defaults to MAX_RETRIES")
	f.BoolVar(&solveJSON, "json", false, "print the result as JSON")
	f.BoolVar(&solveProgress, "progress", false, "print search progress to stderr")
}

func runSolve(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	ctx := background(cmd)

	provider := firstNonEmpty(solveProvider, cfg.LLMProvider)
	model := firstNonEmpty(solveModel, cfg.LLMModel)
	oracle, err := newOracle(ctx, llm.ProviderConfig{
		Provider:      provider,
		Model:         model,
		APIKey:        cfg.APIKeyFor(provider),
		BaseURL:       cfg.LLMBaseURL,
		SystemPrompt:  cfg.SystemPrompt,
		ContextTokens: cfg.ContextTokens,
		AnswerTokens:  cfg.AnswerTokens,
		Timeout:       cfg.LLMTimeout,
	})
	if err != nil {
		return err
	}
	// in-process judge cache only
	oracle = llm.NewCachedOracle(oracle, cache.NewCacheService(cache.InitL1Cache(), nil), provider+"/"+model, cfg.JudgeCacheTTL)

	opts := reasoning.DefaultOptions()
	opts.MaxBreadth = pick(solveBreadth, cfg.BeamWidth)
	opts.MaxDepth = pick(solveDepth, cfg.MaxDepth)
	opts.MaxRetries = cfg.MaxRetries
	if solveRetries >= 0 {
		opts.MaxRetries = solveRetries
	}
	opts.RootValue = cfg.RootValue
	opts.SlotAttempts = pick(cfg.SlotAttempts, opts.SlotAttempts)
	opts.MaxTokens = cfg.AnswerTokens
	if solveProgress {
		opts.Observer = progressPrinter(cmd.ErrOrStderr())
	}

	engine, err := reasoning.NewEngine(oracle, opts)
	if err != nil {
		return err
	}
	res := engine.Search(ctx, question)

	out := cmd.OutOrStdout()
	if solveJSON {
		payload := struct {
			Solved     bool                `json:"solved"`
			Attempts   int                 `json:"attempts"`
			Transcript []reasoning.Message `json:"transcript"`
			Error      string              `json:"error,omitempty"`
		}{res.Solved, res.Attempts, res.Transcript, errString(res.Err)}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return err
		}
	} else {
		printTranscript(out, res)
	}
	if !res.Solved {
		return errNotSolved
	}
	return nil
}

func printTranscript(w io.Writer, res reasoning.Result) {
	if !res.Solved {
		fmt.Fprintf(w, "No verified solution after %d attempt(s): %s\n", res.Attempts, errString(res.Err))
		return
	}
	for i, msg := range res.Transcript {
		fmt.Fprintf(w, "[%d] %s: %s\n", i, msg.Role, msg.Content)
	}
	fmt.Fprintf(w, "Solved in %d attempt(s), depth budget %d, breadth %d.\n", res.Attempts, res.Depth, res.Breadth)
}

func progressPrinter(w io.Writer) reasoning.Observer {
	return reasoning.ObserverFunc(func(ev reasoning.Event) {
		switch ev.Type {
		case reasoning.EventAttemptStarted:
			fmt.Fprintf(w, "attempt %d: depth %d, breadth %d\n", ev.Attempt+1, ev.MaxDepth, ev.MaxBreadth)
		case reasoning.EventRoundCompleted:
			fmt.Fprintf(w, "  level %d: %d candidate(s), %d kept\n", ev.Level, ev.Candidates, len(ev.Frontier))
		case reasoning.EventAttemptFailed:
			fmt.Fprintf(w, "attempt %d failed: %s\n", ev.Attempt+1, ev.Reason)
		case reasoning.EventSolved:
			fmt.Fprintf(w, "solved at level %d\n", ev.Level)
		}
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pick(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
