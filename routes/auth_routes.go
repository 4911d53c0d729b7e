package routes

import (
	"github.com/anjiri1684/skill_bridge/handlers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App, h *handlers.AuthHandler, g Guards) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)

	profile := api.Group("/profile/me", g.Auth)
	profile.Get("", h.Me)
	profile.Put("", g.Active, h.UpdateMe)
}
