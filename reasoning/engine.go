package reasoning

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"reasoning_backend/pkg/logging"
)

var (
	ErrNoOracle = errors.New("reasoning: oracle is required")

	errEmptyFrontier  = errors.New("frontier is empty")
	errDepthExhausted = errors.New("max depth reached without a verified solution")
)

// Each failed attempt widens the next one by this much.
const (
	escalateDepth   = 5
	escalateBreadth = 1
)

type Options struct {
	MaxBreadth int
	MaxDepth   int
	MaxRetries int
	// RootValue seeds the root's value and total value.
	RootValue float64
	// SlotAttempts bounds oracle requests per candidate slot.
	SlotAttempts int
	// AcceptScore is the minimum judge score for a SOLVED candidate.
	AcceptScore float64
	// MaxTokens caps every oracle completion; 0 means oracle default.
	MaxTokens int
	Logger    *slog.Logger
	Observer  Observer
}

func DefaultOptions() Options {
	return Options{
		MaxBreadth:   3,
		MaxDepth:     10,
		MaxRetries:   2,
		RootValue:    1,
		SlotAttempts: 3,
		AcceptScore:  0.8,
	}
}

// Result is the outcome of Search. Transcript is empty, never nil, on failure.
type Result struct {
	Transcript []Message
	Solved     bool
	Attempts   int
	// Depth and Breadth of the last attempt that ran.
	Depth   int
	Breadth int
	// Nodes in the last attempt's tree.
	Nodes int
	Err   error
}

type Engine struct {
	oracle   Oracle
	opts     Options
	baseline []Message
	log      *slog.Logger
	observer Observer
}

// searchBudget is the (depth, breadth) pair of one attempt. Escalation produces a
// new budget, so the engine's configured options are never touched.
type searchBudget struct {
	depth   int
	breadth int
}

func (b searchBudget) escalate() searchBudget {
	return searchBudget{depth: b.depth + escalateDepth, breadth: b.breadth + escalateBreadth}
}

type scoredStep struct {
	score   float64
	content string
	parent  NodeID
}

// NewEngine snapshots the oracle's baseline conversation once; later changes to the
// oracle's history are not seen by this engine.
func NewEngine(oracle Oracle, opts Options) (*Engine, error) {
	if oracle == nil {
		return nil, ErrNoOracle
	}
	def := DefaultOptions()
	if opts.MaxBreadth <= 0 {
		opts.MaxBreadth = def.MaxBreadth
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.SlotAttempts <= 0 {
		opts.SlotAttempts = def.SlotAttempts
	}
	if opts.AcceptScore <= 0 {
		opts.AcceptScore = def.AcceptScore
	}
	log := opts.Logger
	if log == nil {
		log = logging.Logger
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Engine{
		oracle:   oracle,
		opts:     opts,
		baseline: CloneMessages(oracle.Baseline()),
		log:      log,
		observer: observer,
	}, nil
}

// Options returns the configured options. Escalation never changes them.
func (e *Engine) Options() Options {
	return e.opts
}

// Search runs round-based searches, escalating depth and breadth after every failed
// attempt, until one yields a verified transcript or the retries are spent.
func (e *Engine) Search(ctx context.Context, question string) Result {
	budget := searchBudget{depth: e.opts.MaxDepth, breadth: e.opts.MaxBreadth}
	res := Result{Transcript: []Message{}}
	for attempt := 0; attempt <= e.opts.MaxRetries; attempt++ {
		res.Attempts = attempt + 1
		res.Depth, res.Breadth = budget.depth, budget.breadth
		e.observer.Observe(Event{Type: EventAttemptStarted, Attempt: attempt, MaxDepth: budget.depth, MaxBreadth: budget.breadth})

		transcript, nodes, err := e.runSearch(ctx, question, attempt, budget)
		res.Nodes = nodes
		if err == nil {
			res.Transcript = transcript
			res.Solved = true
			res.Err = nil
			e.log.Info("search solved", "attempt", attempt, "depth", budget.depth, "breadth", budget.breadth, "steps", len(transcript))
			return res
		}
		res.Err = err
		e.log.Info("search attempt failed", "attempt", attempt, "depth", budget.depth, "breadth", budget.breadth, "reason", err)
		e.observer.Observe(Event{Type: EventAttemptFailed, Attempt: attempt, MaxDepth: budget.depth, MaxBreadth: budget.breadth, Reason: err.Error()})
		if ctx.Err() != nil {
			break
		}
		budget = budget.escalate()
	}
	return res
}

func (e *Engine) runSearch(ctx context.Context, question string, attempt int, budget searchBudget) ([]Message, int, error) {
	tree := NewTree(question, e.opts.RootValue)
	frontier := []NodeID{tree.Root().ID}

	for level := 0; level < budget.depth; level++ {
		if err := ctx.Err(); err != nil {
			return nil, tree.Len(), err
		}
		if len(frontier) == 0 {
			return nil, tree.Len(), errEmptyFrontier
		}

		var pool []scoredStep
		for _, id := range frontier {
			node := tree.Node(id)
			steps := e.expandLogic(ctx, tree, node, budget)
			scored := e.evaluateSteps(ctx, tree, node, steps)
			for _, s := range scored {
				if isSolved(s.content) && s.score >= e.opts.AcceptScore {
					e.observer.Observe(Event{Type: EventSolved, Attempt: attempt, Level: level, Frontier: []StepSummary{summarize(node)}})
					return tree.History(id), tree.Len(), nil
				}
			}
			pool = append(pool, scored...)
		}

		frontier = e.selectBeam(tree, pool, budget.breadth)
		e.observer.Observe(Event{
			Type:       EventRoundCompleted,
			Attempt:    attempt,
			Level:      level,
			MaxDepth:   budget.depth,
			MaxBreadth: budget.breadth,
			Candidates: len(pool),
			Frontier:   summarizeAll(tree, frontier),
		})
	}
	return nil, tree.Len(), errDepthExhausted
}

// selectBeam ranks every candidate of the round together by its score plus the
// parent's path value and materializes the best breadth of them. Ties keep the
// order in which candidates were produced.
func (e *Engine) selectBeam(tree *Tree, pool []scoredStep, breadth int) []NodeID {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].score+tree.Node(pool[i].parent).TotalValue > pool[j].score+tree.Node(pool[j].parent).TotalValue
	})
	if len(pool) > breadth {
		pool = pool[:breadth]
	}
	next := make([]NodeID, 0, len(pool))
	for _, s := range pool {
		child := tree.AddChild(s.parent, s.content, s.score)
		next = append(next, child.ID)
	}
	return next
}
