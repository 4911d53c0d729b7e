package routes

import (
	"github.com/anjiri1684/skill_bridge/handlers"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App, h *handlers.BookingHandler, g Guards) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", g.Auth)
	booking.Get("/my-bookings", h.ListMine)
	booking.Get("/stats", h.Stats)
	booking.Post("", g.Active, h.Create)
	booking.Get("/:id", h.Get)
	booking.Put("/:id", g.Active, h.Update)
	booking.Post("/:id/cancel", g.Active, h.Cancel)
	booking.Post("/:id/complete", g.Active, h.Complete)
	booking.Post("/:id/review", g.Active, h.Review)
	booking.Get("/:id/receipt", h.Receipt)
}

func ReviewRoutes(app *fiber.App, h *handlers.ReviewHandler, g Guards) {
	api := app.Group("/api/v1")

	reviews := api.Group("/reviews", g.Auth)
	reviews.Post("/:id/respond", g.Active, h.Respond)
}
