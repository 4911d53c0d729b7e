package handlers

import (
	"errors"

	"github.com/anjiri1684/skill_bridge/services"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var statusByKind = map[services.Kind]int{
	services.KindNotFound:     fiber.StatusNotFound,
	services.KindValidation:   fiber.StatusBadRequest,
	services.KindUnauthorized: fiber.StatusForbidden,
	services.KindInvalidState: fiber.StatusConflict,
	services.KindOverlap:      fiber.StatusConflict,
	services.KindConflict:     fiber.StatusConflict,
	services.KindTooEarly:     fiber.StatusBadRequest,
	services.KindUnavailable:  fiber.StatusBadRequest,
}

// ErrorHandler is installed as fiber.Config.ErrorHandler. Domain errors keep
// their kind and message; anything else is logged and reported as a bare 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if se, ok := services.AsError(err); ok {
		status, known := statusByKind[se.Kind]
		if !known {
			status = fiber.StatusInternalServerError
		}
		return writeError(c, status, se)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"status": "error", "message": fe.Message})
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": "internal server error",
	})
}

func writeError(c *fiber.Ctx, status int, se *services.Error) error {
	body := fiber.Map{"status": "error", "kind": se.Kind, "message": se.Message}
	if se.Kind == services.KindTooEarly {
		body["remainingMinutes"] = se.RemainingMinutes
	}
	return c.Status(status).JSON(body)
}
