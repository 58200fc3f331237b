package servers

import (
	"context"
	"net"
	"sync"
	"time"

	"reasoning_backend/pkg/logging"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// SolverService is the service name reported alongside the overall status.
const SolverService = "reasoning.Solver"

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// HealthService serves the standard gRPC health protocol so orchestrators can
// probe the API and worker processes the same way.
type HealthService struct {
	port     string
	interval time.Duration
	checks   map[string]Check

	server   *grpc.Server
	listener net.Listener
	health   *health.Server
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewHealthService(port string, interval time.Duration, checks map[string]Check) *HealthService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthService{
		port:     port,
		interval: interval,
		checks:   checks,
		health:   health.NewServer(),
		stop:     make(chan struct{}),
	}
}

func (s *HealthService) Start() error {
	lis, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		logging.Logger.Error("fail HealthService listen", "error", err)
		return err
	}
	s.listener = lis
	s.server = grpc.NewServer(grpc.KeepaliveParams(keepalive.ServerParameters{
		Time:    2 * time.Minute,
		Timeout: 20 * time.Second,
	}))
	healthpb.RegisterHealthServer(s.server, s.health)
	s.Refresh(context.Background())

	logging.Logger.Info("start grpc health server", "addr", lis.Addr().String())
	go func() {
		if err := s.server.Serve(lis); err != nil {
			logging.Logger.Error("fail grpc server", "error", err)
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), s.interval/2)
				s.Refresh(ctx)
				cancel()
			}
		}
	}()
	return nil
}

// Refresh runs every check once and publishes the combined status.
func (s *HealthService) Refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			logging.Logger.Warn("health check failed", "dependency", name, "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(SolverService, status)
}

// Addr is the bound address, useful when the port was "0".
func (s *HealthService) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *HealthService) Stop() error {
	select {
	case <-s.stop:
		return nil
	default:
		close(s.stop)
	}
	s.wg.Wait()
	s.health.Shutdown()
	if s.server != nil {
		// GracefulStop closes the listener as well
		s.server.GracefulStop()
	}
	return nil
}
