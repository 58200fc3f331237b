package bootstrap

import (
	"fmt"
	"time"

	"reasoning_backend/config"
	"reasoning_backend/pkg/logging"
	"reasoning_backend/platform/grpc/servers"
)

type GrpcServices struct {
	HealthService *servers.HealthService
}

// NewGrpcServices starts the gRPC health endpoint when GRPC_HEALTH_PORT is set.
func NewGrpcServices(cfg *config.Config, infra *Infrastructure) (*GrpcServices, error) {
	s := &GrpcServices{}
	if cfg.GrpcHealthPort == "" {
		logging.Logger.Info("GRPC_HEALTH_PORT not set, grpc health service disabled")
		return s, nil
	}
	checks := map[string]servers.Check{}
	for name, check := range infra.Checks() {
		checks[name] = check
	}
	s.HealthService = servers.NewHealthService(cfg.GrpcHealthPort, 15*time.Second, checks)
	if err := s.HealthService.Start(); err != nil {
		return nil, fmt.Errorf("failed to start health service: %w", err)
	}
	return s, nil
}

func (s *GrpcServices) Shutdown() error {
	if s.HealthService != nil {
		return s.HealthService.Stop()
	}
	return nil
}
