package reasoning

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// scriptedOracle answers generation and judge requests through callbacks and
// records every call it sees.
type scriptedOracle struct {
	baseline []Message
	generate func(conv []Message, params GenerateParams) (string, error)
	judge    func(step string) (string, error)

	genCalls   []GenerateParams
	judgeCalls int
	convs      [][]Message
}

func (o *scriptedOracle) Baseline() []Message {
	return o.baseline
}

func (o *scriptedOracle) Generate(_ context.Context, conv []Message, params GenerateParams) (*Completion, error) {
	o.convs = append(o.convs, CloneMessages(conv))
	last := conv[len(conv)-1].Content
	if strings.Contains(last, "strict logic grader") {
		o.judgeCalls++
		step := conv[len(conv)-2].Content
		if o.judge == nil {
			return &Completion{Content: "0.5"}, nil
		}
		text, err := o.judge(step)
		if err != nil {
			return nil, err
		}
		return &Completion{Content: text}, nil
	}
	o.genCalls = append(o.genCalls, params)
	text, err := o.generate(conv, params)
	if err != nil {
		return nil, err
	}
	return &Completion{Content: text, CompletionTokens: len(strings.Fields(text))}, nil
}

var errOracleDown = errors.New("oracle down")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// nodeContent returns the content of the node being expanded: the message right
// before the trailing instruction prompt.
func nodeContent(conv []Message) string {
	return conv[len(conv)-2].Content
}

func avoidsSomething(conv []Message) bool {
	return strings.Contains(conv[len(conv)-1].Content, "DIFFERENT")
}
