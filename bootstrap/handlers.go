package bootstrap

import "reasoning_backend/handlers"

type Handlers struct {
	ReasoningHandler *handlers.ReasoningHandler
	LLMConfigHandler *handlers.LLMConfigHandler
	WSHandler        *handlers.WSHandler
	HealthHandler    *handlers.HealthHandler
}

func NewHandlers(services *Services, infra *Infrastructure) *Handlers {
	checks := map[string]handlers.Pinger{}
	for name, check := range infra.Checks() {
		checks[name] = check
	}
	return &Handlers{
		ReasoningHandler: handlers.NewReasoningHandler(services.ReasoningService),
		LLMConfigHandler: handlers.NewLLMConfigHandler(services.LLMConfigService),
		WSHandler:        handlers.NewWSHandler(infra.EventPublisher, services.ReasoningService),
		HealthHandler:    handlers.NewHealthHandler(checks),
	}
}
