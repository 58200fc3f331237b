package llm

import (
	"context"
	"time"

	"reasoning_backend/pkg/logging"
	"reasoning_backend/reasoning"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	oracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reasoning_oracle_requests_total",
		Help: "Oracle requests by provider and result",
	}, []string{"provider", "result"})

	oracleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reasoning_oracle_latency_seconds",
		Help:    "Oracle round trip latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"provider"})

	oracleCompletionTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reasoning_oracle_completion_tokens_total",
		Help: "Completion tokens reported by the oracle",
	}, []string{"provider"})
)

// InstrumentedOracle records request counts, latency and token throughput.
type InstrumentedOracle struct {
	next     reasoning.Oracle
	provider string
}

func NewInstrumentedOracle(next reasoning.Oracle, provider string) *InstrumentedOracle {
	return &InstrumentedOracle{next: next, provider: provider}
}

func (o *InstrumentedOracle) Baseline() []reasoning.Message {
	return o.next.Baseline()
}

func (o *InstrumentedOracle) Generate(ctx context.Context, conversation []reasoning.Message, params reasoning.GenerateParams) (*reasoning.Completion, error) {
	start := time.Now()
	out, err := o.next.Generate(ctx, conversation, params)
	elapsed := time.Since(start)
	oracleLatency.WithLabelValues(o.provider).Observe(elapsed.Seconds())
	if err != nil {
		oracleRequests.WithLabelValues(o.provider, "error").Inc()
		return nil, err
	}
	oracleRequests.WithLabelValues(o.provider, "ok").Inc()
	if out == nil {
		return nil, nil
	}
	oracleCompletionTokens.WithLabelValues(o.provider).Add(float64(out.CompletionTokens))
	if secs := elapsed.Seconds(); secs > 0 {
		logging.Logger.Debug("oracle call", "provider", o.provider, "seconds", secs,
			"tokens", out.CompletionTokens, "tokens_per_second", float64(out.CompletionTokens)/secs)
	}
	return out, nil
}
