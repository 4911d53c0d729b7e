package routes

import (
	"github.com/anjiri1684/skill_bridge/handlers"
	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/anjiri1684/skill_bridge/models"
	"github.com/gofiber/fiber/v2"
)

func AvailabilityRoutes(app *fiber.App, h *handlers.AvailabilityHandler, g Guards) {
	api := app.Group("/api/v1")

	availability := api.Group("/availability")
	availability.Get("/tutor/:tutorId", h.ListForTutor)

	tutorOnly := middleware.RoleRequired(models.RoleTutor, models.RoleAdmin)
	availability.Post("", g.Auth, g.Active, tutorOnly, h.Add)
	availability.Post("/bulk", g.Auth, g.Active, tutorOnly, h.Bulk)
	availability.Put("/:id", g.Auth, g.Active, tutorOnly, h.Update)
	availability.Delete("/:id", g.Auth, g.Active, tutorOnly, h.Remove)
	availability.Patch("/:id/toggle", g.Auth, g.Active, tutorOnly, h.Toggle)
}
