package cache

import "time"

// CacheService is the two-level cache seen by services.
type CacheService interface {
	GetCache(key string) (interface{}, bool)
	SetCache(key string, value interface{}, expiration time.Duration) error
	DelCache(key string) error
}

// L2Store is the shared second level, normally redis. Values come back as JSON strings.
type L2Store interface {
	GetCache(key string) (interface{}, bool)
	SetCache(key string, value interface{}, expiration time.Duration) error
	DelCache(key string) error
}
