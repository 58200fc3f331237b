package reasoning

import (
	"fmt"
	"strings"
)

// SolvedMarker is the only output that can end a search.
const SolvedMarker = "SOLVED"

const outputFormat = "Output format:\n" +
	"1. Exactly one of: 'idea: <sentence>', 'step: <sentence>', 'solution: <sentence>', " +
	"'refute: <sentence>', or the single word SOLVED.\n" +
	"2. A single sentence, nothing else.\n" +
	"3. Do not solve the entire problem at once. Focus on the immediate next action.\n"

const evalRubric = "Scoring rules:\n" +
	"1.0: Essential and correct step.\n" +
	"0.5: Valid but vague or trivial.\n" +
	"0.2: Redundant, or nearly repeats a previous step.\n" +
	"0.0: Invalid, contradictory, or impossible given the problem and the history.\n" +
	"Constraints:\n" +
	"1. Be skeptical. Start from 0.0 and only give points for logic.\n" +
	"2. Output ONLY the score as a number. No words or letters.\n"

func isSolved(content string) bool {
	return strings.EqualFold(content, SolvedMarker)
}

func buildExpandPrompt(problem string, node *Node, policy generationPolicy, avoid []string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Problem: %s\n", problem))
	builder.WriteString(fmt.Sprintf("%s: %s\n", policy.contextLabel, node.Content))
	builder.WriteString(fmt.Sprintf("Based on the history and the %s: %s\n",
		strings.ToLower(policy.contextLabel), policy.instruction))
	builder.WriteString(outputFormat)
	if len(avoid) > 0 {
		builder.WriteString("IMPORTANT: Your answer must be DIFFERENT from these options:\n")
		for _, step := range avoid {
			builder.WriteString("- " + step + "\n")
		}
	}
	return builder.String()
}

func buildEvalPrompt(problem, step string) string {
	var builder strings.Builder
	builder.WriteString("You are a strict logic grader. Rate the last step on a scale of 0.0 to 1.0.\n")
	builder.WriteString(fmt.Sprintf("Problem: %s\n", problem))
	builder.WriteString(fmt.Sprintf("Step under review: %s\n", step))
	builder.WriteString(evalRubric)
	return builder.String()
}
