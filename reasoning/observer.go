package reasoning

type EventType string

const (
	EventAttemptStarted EventType = "attempt_started"
	EventAttemptFailed  EventType = "attempt_failed"
	EventRoundCompleted EventType = "round_completed"
	EventSolved         EventType = "solved"
)

// StepSummary describes a tree node in progress events.
type StepSummary struct {
	Content    string  `json:"content"`
	Depth      int     `json:"depth"`
	Value      float64 `json:"value"`
	TotalValue float64 `json:"total_value"`
}

type Event struct {
	Type       EventType     `json:"type"`
	Attempt    int           `json:"attempt"`
	Level      int           `json:"level"`
	MaxDepth   int           `json:"max_depth,omitempty"`
	MaxBreadth int           `json:"max_breadth,omitempty"`
	Candidates int           `json:"candidates,omitempty"`
	Frontier   []StepSummary `json:"frontier,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

// Observer receives progress events synchronously from the search loop.
type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(ev Event) {
	f(ev)
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

func summarize(n *Node) StepSummary {
	return StepSummary{Content: n.Content, Depth: n.Depth, Value: n.Value, TotalValue: n.TotalValue}
}

func summarizeAll(tree *Tree, ids []NodeID) []StepSummary {
	out := make([]StepSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, summarize(tree.Node(id)))
	}
	return out
}
