package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"reasoning_backend/platform/cache"
	"reasoning_backend/reasoning"
)

// maxCachedTemperature is the highest temperature whose answers are treated as
// repeatable.
const maxCachedTemperature = 0.2

// CachedOracle memoizes judge-style calls: low temperature and no repetition
// policy. Generation calls always reach the wrapped oracle, since they rely on
// sampling to produce distinct candidates.
type CachedOracle struct {
	next      reasoning.Oracle
	cache     *cache.TypedCache[reasoning.Completion]
	namespace string
	ttl       time.Duration
}

func NewCachedOracle(next reasoning.Oracle, cs cache.CacheService, namespace string, ttl time.Duration) *CachedOracle {
	return &CachedOracle{
		next:      next,
		cache:     cache.NewTypedCache[reasoning.Completion](cs),
		namespace: namespace,
		ttl:       ttl,
	}
}

func (o *CachedOracle) Baseline() []reasoning.Message {
	return o.next.Baseline()
}

func (o *CachedOracle) Generate(ctx context.Context, conversation []reasoning.Message, params reasoning.GenerateParams) (*reasoning.Completion, error) {
	if !cacheable(params) {
		return o.next.Generate(ctx, conversation, params)
	}
	key, err := o.cacheKey(conversation, params)
	if err != nil {
		return o.next.Generate(ctx, conversation, params)
	}
	out, err := o.cache.GetOrLoad(key, o.ttl, func() (reasoning.Completion, error) {
		c, err := o.next.Generate(ctx, conversation, params)
		if err != nil {
			return reasoning.Completion{}, err
		}
		return *c, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func cacheable(params reasoning.GenerateParams) bool {
	return params.RepeatPenalty == nil && params.Temperature <= maxCachedTemperature
}

func (o *CachedOracle) cacheKey(conversation []reasoning.Message, params reasoning.GenerateParams) (string, error) {
	raw, err := json.Marshal(struct {
		Namespace   string              `json:"ns"`
		Messages    []reasoning.Message `json:"messages"`
		Temperature float64             `json:"temperature"`
		MaxTokens   int                 `json:"max_tokens"`
	}{o.namespace, conversation, params.Temperature, params.MaxTokens})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return "oracle:" + hex.EncodeToString(sum[:]), nil
}
