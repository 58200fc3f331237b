package reasoning

import (
	"context"
	"strings"
)

const judgeTemperature = 0.1

// evaluateSteps grades every candidate with one judge request each. A failed
// request falls back to DefaultScore; the candidate is kept.
func (e *Engine) evaluateSteps(ctx context.Context, tree *Tree, node *Node, steps []string) []scoredStep {
	problem := tree.Root().Content
	base := append(CloneMessages(e.baseline), tree.History(node.ID)...)

	scored := make([]scoredStep, 0, len(steps))
	for _, step := range steps {
		conv := append(CloneMessages(base),
			Message{Role: RoleAssistant, Content: step},
			Message{Role: RoleUser, Content: buildEvalPrompt(problem, step)},
		)
		score := DefaultScore
		out, err := e.oracle.Generate(ctx, conv, GenerateParams{
			Temperature: judgeTemperature,
			MaxTokens:   e.opts.MaxTokens,
		})
		if err != nil {
			e.log.Warn("fail evaluateSteps generate", "depth", node.Depth, "error", err)
		} else if out != nil {
			score = TextToScore(strings.TrimSpace(out.Content))
		}
		scored = append(scored, scoredStep{score: score, content: step, parent: node.ID})
	}
	return scored
}
