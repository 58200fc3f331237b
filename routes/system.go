package routes

import (
	"reasoning_backend/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterSystemRoutes(app *fiber.App, health *handlers.HealthHandler) {
	app.Get("/healthz", health.Healthz)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
