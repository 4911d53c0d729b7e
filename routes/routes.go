package routes

import "github.com/gofiber/fiber/v2"

// Guards are the middleware shared by the route groups.
type Guards struct {
	// Auth verifies the bearer token.
	Auth fiber.Handler
	// Active rejects suspended and banned accounts. It runs after Auth.
	Active fiber.Handler
}
