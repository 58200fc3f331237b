package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"reasoning_backend/pkg/logging"

	"golang.org/x/sync/singleflight"
)

// TypedCache wraps CacheService with typed values. L1 hits come back as T; L2 hits
// come back as JSON and are decoded.
type TypedCache[T any] struct {
	cache CacheService
	sf    singleflight.Group
}

func NewTypedCache[T any](cache CacheService) *TypedCache[T] {
	return &TypedCache[T]{cache: cache}
}

func (tc *TypedCache[T]) Set(key string, value T, expiration time.Duration) error {
	return tc.cache.SetCache(key, value, expiration)
}

func (tc *TypedCache[T]) Get(key string) (T, bool, error) {
	var zero T

	rawValue, exists := tc.cache.GetCache(key)
	if !exists {
		return zero, false, nil
	}
	if typedValue, ok := rawValue.(T); ok {
		return typedValue, true, nil
	}

	var result T
	switch v := rawValue.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &result); err != nil {
			return zero, true, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
	case []byte:
		if err := json.Unmarshal(v, &result); err != nil {
			return zero, true, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
	default:
		jsonData, err := json.Marshal(rawValue)
		if err != nil {
			return zero, true, fmt.Errorf("failed to marshal intermediate value: %w", err)
		}
		if err := json.Unmarshal(jsonData, &result); err != nil {
			return zero, true, fmt.Errorf("failed to unmarshal cache value: %w", err)
		}
	}
	return result, true, nil
}

// GetOrLoad returns the cached value or calls load once per key, even when several
// callers miss at the same time. Load errors are not cached.
func (tc *TypedCache[T]) GetOrLoad(key string, expiration time.Duration, load func() (T, error)) (T, error) {
	if v, ok, err := tc.Get(key); err == nil && ok {
		return v, nil
	}
	v, err, _ := tc.sf.Do(key, func() (interface{}, error) {
		loaded, err := load()
		if err != nil {
			return loaded, err
		}
		if err := tc.Set(key, loaded, expiration); err != nil {
			logging.Logger.Warn("fail GetOrLoad set", "key", key, "error", err)
		}
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (tc *TypedCache[T]) Delete(key string) error {
	return tc.cache.DelCache(key)
}
