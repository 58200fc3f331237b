package reasoning

import "strings"

// NodeState selects how a node is expanded.
type NodeState int

const (
	StateStart NodeState = iota
	StateContinue
	StateVerify
	StateCorrect
)

func (s NodeState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateContinue:
		return "continue"
	case StateVerify:
		return "verify"
	case StateCorrect:
		return "correct"
	default:
		return "unknown"
	}
}

// StateOf derives the expansion state from the node's depth and content markers.
// A step that both proposes and refutes a solution is verified.
func StateOf(n *Node) NodeState {
	if n.Depth == 0 {
		return StateStart
	}
	content := strings.ToLower(n.Content)
	switch {
	case strings.Contains(content, "solution:"):
		return StateVerify
	case strings.Contains(content, "refute:"):
		return StateCorrect
	default:
		return StateContinue
	}
}

type generationPolicy struct {
	temperature   float64
	repeatPenalty *float64
	contextLabel  string
	instruction   string
}

func policyFor(s NodeState) generationPolicy {
	switch s {
	case StateStart:
		return generationPolicy{
			temperature:   1.2,
			repeatPenalty: penalty(RepeatPenaltyNormal),
			contextLabel:  "Problem Statement",
			instruction: "Propose the FIRST idea or step towards solving this. " +
				"Explore freely: an unusual angle is better than an obvious one.",
		}
	case StateVerify:
		return generationPolicy{
			temperature:   0.1,
			repeatPenalty: penalty(RepeatPenaltyNone),
			contextLabel:  "Proposed Solution",
			instruction: "Check the proposed solution against the problem and the history. " +
				"If it is flawed, output 'refute:' followed by the reason. If it is correct, output exactly: SOLVED",
		}
	case StateCorrect:
		return generationPolicy{
			temperature:   0.7,
			repeatPenalty: penalty(RepeatPenaltyNormal),
			contextLabel:  "Refutation",
			instruction:   "Propose a corrected solution or a step that fixes the refuted reasoning.",
		}
	default:
		return generationPolicy{
			temperature:   1.0,
			repeatPenalty: penalty(RepeatPenaltyNormal),
			contextLabel:  "Last Logical Step",
			instruction:   "Propose the NEXT idea, step, or the solution if it is now reachable.",
		}
	}
}
