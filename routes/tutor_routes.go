package routes

import (
	"github.com/anjiri1684/skill_bridge/handlers"
	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/anjiri1684/skill_bridge/models"
	"github.com/gofiber/fiber/v2"
)

func TutorRoutes(app *fiber.App, h *handlers.TutorHandler, g Guards) {
	api := app.Group("/api/v1")

	api.Get("/categories", h.Categories)

	tutors := api.Group("/tutors")
	tutors.Post("/apply", g.Auth, g.Active, h.Apply)
	tutors.Put("/me", g.Auth, g.Active, middleware.RoleRequired(models.RoleTutor, models.RoleAdmin), h.UpdateMe)
	tutors.Get("", h.Search)
	tutors.Get("/:tutorId", h.Get)
	tutors.Get("/:tutorId/reviews", h.Reviews)
}
