package routes

import (
	"github.com/anjiri1684/skill_bridge/handlers"
	"github.com/gofiber/fiber/v2"
)

func UploadRoutes(app *fiber.App, h *handlers.UploadHandler, g Guards) {
	api := app.Group("/api/v1")

	uploads := api.Group("/uploads", g.Auth)
	uploads.Get("/signature", h.Signature)
}

func WebsocketRoutes(app *fiber.App, h *handlers.WSHandler) {
	api := app.Group("/api/v1")

	api.Get("/ws", h.Upgrade, h.Serve())
}
