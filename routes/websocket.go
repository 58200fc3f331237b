package routes

import (
	"reasoning_backend/handlers"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func SetupWebSocketRoutes(app *fiber.App, wsHandler *handlers.WSHandler) {
	ws := app.Group("/ws")

	ws.Use("/runs/:run_id", wsHandler.WebSocketUpgrade)
	ws.Get("/runs/:run_id", websocket.New(wsHandler.HandleRunEvents))
}
