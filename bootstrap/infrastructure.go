package bootstrap

import (
	"context"

	"reasoning_backend/config"
	"reasoning_backend/pkg/logging"
	"reasoning_backend/platform/cache"
	"reasoning_backend/platform/database"
	"reasoning_backend/platform/events"
	"reasoning_backend/platform/queue"
	"reasoning_backend/platform/redis"
	"reasoning_backend/platform/storage"
)

type Infrastructure struct {
	DB             *database.DB
	Redis          *redis.Service
	Storage        *storage.Service
	Queue          *queue.MessageQueueService
	Cache          cache.CacheService
	EventPublisher *events.EventPublisher
}

func NewInfrastructure(cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{}

	// database
	db, err := database.InitPostgres(cfg)
	if err != nil {
		return nil, err
	}
	infra.DB = db
	if err := infra.DB.AutoMigrate(); err != nil {
		return nil, err
	}

	// redis services
	redisService, err := redis.InitRedis(cfg)
	if err != nil {
		logging.Logger.Error("fail Initializing Redis", "error", err)
		return nil, err
	}
	infra.Redis = redisService

	// transcript archive is optional
	if cfg.StorageType != "" {
		storageService, err := storage.InitStorageService(cfg)
		if err != nil {
			logging.Logger.Error("fail Initializing Bucket", "error", err)
			return nil, err
		}
		infra.Storage = storageService
	} else {
		logging.Logger.Warn("STORAGE_TYPE not set, transcripts will not be archived")
	}

	infra.Queue = queue.NewMessageService(redisService)
	infra.Cache = cache.NewCacheService(cache.InitL1Cache(), redisService)
	infra.EventPublisher = events.NewEventPublisher(redisService.Rdb)

	return infra, nil
}

// Checks are the dependency probes shared by /healthz and the gRPC health service.
func (infra *Infrastructure) Checks() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		"postgres": func(ctx context.Context) error { return infra.DB.Ping() },
		"redis":    func(ctx context.Context) error { return infra.Redis.Rdb.Ping(ctx).Err() },
	}
}

func (infra *Infrastructure) Shutdown() error {
	if err := infra.DB.Close(); err != nil {
		logging.Logger.Error("fail closing database", "error", err)
		return err
	}
	if err := infra.Redis.Close(); err != nil {
		logging.Logger.Error("fail closing redis", "error", err)
		return err
	}
	return nil
}
