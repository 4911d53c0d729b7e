package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const defaultRequestTimeout = 10 * time.Second

// base bounds every store call a handler makes by the request timeout.
type base struct {
	timeout time.Duration
}

func (b base) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	timeout := b.timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

// parseOptionalBody decodes dst only when a body was sent.
func parseOptionalBody(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return parseBody(c, dst)
}
