package routes

import (
	"reasoning_backend/handlers"

	"github.com/gofiber/fiber/v2"
)

func RegisterReasoningRoutes(app *fiber.App, handler *handlers.ReasoningHandler) {
	reasoning := app.Group("api/reasoning")
	reasoning.Post("/solve", handler.Solve)
	reasoning.Post("/jobs", handler.Enqueue)
	reasoning.Get("/runs/:run_id", handler.GetRun)
	reasoning.Get("/users/:user_id/runs", handler.ListRuns)
}

func RegisterLLMConfigRoutes(app *fiber.App, handler *handlers.LLMConfigHandler) {
	llmConfig := app.Group("api/llm/config")
	llmConfig.Get("/:user_id", handler.Get)
	llmConfig.Put("/:user_id", handler.Put)
	llmConfig.Delete("/:user_id", handler.Delete)
}
