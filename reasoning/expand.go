package reasoning

import (
	"context"
	"slices"
	"strings"
)

// expandLogic asks the oracle for up to budget.breadth distinct next steps. Requests
// are sequential so that every prompt can list the candidates already produced.
// Failed, empty, or repeated answers fill no slot.
func (e *Engine) expandLogic(ctx context.Context, tree *Tree, node *Node, budget searchBudget) []string {
	if node.Depth >= budget.depth {
		return nil
	}
	state := StateOf(node)
	policy := policyFor(state)
	problem := tree.Root().Content
	base := append(CloneMessages(e.baseline), tree.History(node.ID)...)

	var candidates []string
	maxRequests := budget.breadth * e.opts.SlotAttempts
	for requests := 0; len(candidates) < budget.breadth && requests < maxRequests; requests++ {
		if ctx.Err() != nil {
			break
		}
		conv := append(CloneMessages(base), Message{
			Role:    RoleUser,
			Content: buildExpandPrompt(problem, node, policy, candidates),
		})
		out, err := e.oracle.Generate(ctx, conv, GenerateParams{
			Temperature:   policy.temperature,
			MaxTokens:     e.opts.MaxTokens,
			RepeatPenalty: policy.repeatPenalty,
		})
		if err != nil {
			e.log.Warn("fail expandLogic generate", "state", state.String(), "depth", node.Depth, "error", err)
			continue
		}
		if out == nil {
			continue
		}
		text := strings.TrimSpace(out.Content)
		if text == "" || slices.Contains(candidates, text) {
			continue
		}
		candidates = append(candidates, text)
	}
	e.log.Debug("expanded node", "state", state.String(), "depth", node.Depth, "candidates", len(candidates))
	return candidates
}
