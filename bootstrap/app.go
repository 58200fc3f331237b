package bootstrap

import (
	"reasoning_backend/config"
	"reasoning_backend/middleware"
	"reasoning_backend/pkg/logging"
	"reasoning_backend/routes"

	"github.com/gofiber/fiber/v2"
)

type App struct {
	Cfg            *config.Config
	Infrastructure *Infrastructure
	Repositories   *Repositories
	Services       *Services
	GrpcServices   *GrpcServices
	Handlers       *Handlers
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Cfg: cfg}
	infra, err := NewInfrastructure(cfg)
	if err != nil {
		logging.Logger.Error("fail NewInfrastructure", "error", err)
		return nil, err
	}
	app.Infrastructure = infra

	app.Repositories = NewRepositories(infra.DB)
	app.Services = NewServices(cfg, app.Repositories, infra)
	app.Handlers = NewHandlers(app.Services, infra)

	grpcServices, err := NewGrpcServices(cfg, infra)
	if err != nil {
		logging.Logger.Error("fail NewGrpcServices", "error", err)
		_ = infra.Shutdown()
		return nil, err
	}
	app.GrpcServices = grpcServices

	return app, nil
}

// Fiber builds the HTTP app with every route registered.
func (a *App) Fiber() *fiber.App {
	server := fiber.New(fiber.Config{
		AppName: "reasoning-backend",
	})
	server.Use(middleware.Recover())
	server.Use(middleware.Logger())
	server.Use(middleware.CORS(a.Cfg.AllowOrigins))

	routes.RegisterSystemRoutes(server, a.Handlers.HealthHandler)
	routes.RegisterReasoningRoutes(server, a.Handlers.ReasoningHandler)
	routes.RegisterLLMConfigRoutes(server, a.Handlers.LLMConfigHandler)
	routes.SetupWebSocketRoutes(server, a.Handlers.WSHandler)
	return server
}

// Shutdown infra
func (a *App) Shutdown() error {
	if a == nil {
		return nil
	}
	if a.GrpcServices != nil {
		if err := a.GrpcServices.Shutdown(); err != nil {
			return err
		}
	}
	if a.Infrastructure != nil {
		if err := a.Infrastructure.Shutdown(); err != nil {
			return err
		}
	}
	return nil
}
