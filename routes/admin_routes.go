package routes

import (
	"github.com/anjiri1684/skill_bridge/handlers"
	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h *handlers.AdminHandler, g Guards) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", g.Auth, g.Active, middleware.AdminRequired())

	users := admin.Group("/users")
	users.Get("", h.ListUsers)
	users.Put("/:id/status", h.SetUserStatus)

	admin.Post("/reviews/:id/hide", h.HideReview)
	admin.Post("/categories", h.CreateCategory)
}
