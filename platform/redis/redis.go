package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"reasoning_backend/config"
	"reasoning_backend/pkg/logging"

	"github.com/redis/go-redis/v9"
)

const (
	cachePrefix = "cache:"
	queuePrefix = "queue:"
)

var ErrQueueEmpty = errors.New("queue is empty")

type Service struct {
	Rdb *redis.Client
	Ctx context.Context
}

func InitRedis(cfg *config.Config) (*Service, error) {
	redisUrl := cfg.RedisURL
	if redisUrl == "" {
		return nil, fmt.Errorf("empty redis url")
	}
	opt, err := redis.ParseURL(redisUrl)
	if err != nil {
		return nil, fmt.Errorf("could not parse Redis URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}
	rdb := redis.NewClient(opt)

	testCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(testCtx).Err(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis: %w", err)
	}
	logging.Logger.Info("Connected to Redis")
	return NewService(rdb), nil
}

func NewService(rdb *redis.Client) *Service {
	return &Service{
		Rdb: rdb,
		Ctx: context.Background(),
	}
}

func (s *Service) SetCache(key string, value interface{}, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.Rdb.Set(s.Ctx, cachePrefix+key, jsonData, expiration).Err()
}

// GetCache returns the raw JSON string; callers decode it.
func (s *Service) GetCache(key string) (interface{}, bool) {
	val, err := s.Rdb.Get(s.Ctx, cachePrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Logger.Warn("fail GetCache", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

func (s *Service) DelCache(key string) error {
	return s.Rdb.Del(s.Ctx, cachePrefix+key).Err()
}

func (s *Service) PushToQueue(ctx context.Context, queueName string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		logging.Logger.Error("fail PushToQueue", "error", err)
		return err
	}
	return s.Rdb.LPush(ctx, queuePrefix+queueName, string(jsonValue)).Err()
}

// PopFromQueue blocks up to timeout for the oldest entry. ErrQueueEmpty means the
// wait expired.
func (s *Service) PopFromQueue(ctx context.Context, queueName string, timeout time.Duration) (string, error) {
	res, err := s.Rdb.BRPop(ctx, timeout, queuePrefix+queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrQueueEmpty
		}
		return "", err
	}
	// BRPop replies with [key, value]
	if len(res) != 2 {
		return "", fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}
	return res[1], nil
}

func (s *Service) Close() error {
	return s.Rdb.Close()
}
