package cache

import (
	"time"

	"reasoning_backend/pkg/logging"
)

// l1Share is the fraction of the L2 expiration an entry lives in memory.
const l1Share = 0.3

type Service struct {
	l1 *L1CacheService
	l2 L2Store
}

// NewCacheService builds the two-level cache. A nil l2 leaves an in-process cache,
// which is what the CLI runs with.
func NewCacheService(l1 *L1CacheService, l2 L2Store) CacheService {
	return &Service{l1: l1, l2: l2}
}

func (cs *Service) GetCache(key string) (interface{}, bool) {
	if data, ok := cs.l1.Get(key); ok {
		return data, ok
	}
	if cs.l2 == nil {
		return nil, false
	}
	return cs.l2.GetCache(key)
}

func (cs *Service) SetCache(key string, value interface{}, expiration time.Duration) error {
	if cs.l2 == nil {
		cs.l1.Set(key, value, expiration)
		return nil
	}
	if err := cs.l2.SetCache(key, value, expiration); err != nil {
		logging.Logger.Error("l2 fail SetCache", "key", key, "error", err)
		return err
	}
	cs.l1.Set(key, value, time.Duration(float64(expiration)*l1Share))
	return nil
}

func (cs *Service) DelCache(key string) error {
	cs.l1.Del(key)
	if cs.l2 == nil {
		return nil
	}
	if err := cs.l2.DelCache(key); err != nil {
		logging.Logger.Error("l2 fail DelCache", "key", key, "error", err)
		return err
	}
	return nil
}
