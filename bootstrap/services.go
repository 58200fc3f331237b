package bootstrap

import (
	"reasoning_backend/config"
	"reasoning_backend/platform/llm"
	"reasoning_backend/services"
)

type Services struct {
	LLMConfigService *services.LLMConfigService
	ReasoningService *services.ReasoningService
}

func NewServices(cfg *config.Config, repos *Repositories, infra *Infrastructure) *Services {
	res := &Services{}

	llmConfigService := services.NewLLMConfigService(infra.Cache, cfg)
	res.LLMConfigService = llmConfigService

	// a nil *storage.Service must not become a non-nil interface
	var archive services.TranscriptArchive
	if infra.Storage != nil {
		archive = infra.Storage
	}
	res.ReasoningService = services.NewReasoningService(
		cfg,
		repos.RunRepository,
		llmConfigService,
		infra.Cache,
		llm.NewOracle,
		infra.Queue,
		infra.EventPublisher,
		archive,
	)
	return res
}

func (s *Services) NewWorker(cfg *config.Config, infra *Infrastructure) *services.Worker {
	return services.NewWorker(s.ReasoningService, infra.Queue, cfg.WorkerIdleWait, cfg.WorkerConcurrency)
}
