package handlers

import (
	"time"

	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/anjiri1684/skill_bridge/services"
	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	base
	reviews *services.ReviewService
}

func NewReviewHandler(reviews *services.ReviewService, timeout time.Duration) *ReviewHandler {
	return &ReviewHandler{base: base{timeout: timeout}, reviews: reviews}
}

// Respond lets the reviewed tutor answer a review. A second call replaces the answer.
func (h *ReviewHandler) Respond(c *fiber.Ctx) error {
	reviewID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req services.RespondInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	review, err := h.reviews.Respond(ctx, middleware.ActorFrom(c).UserID, reviewID, req)
	if err != nil {
		return err
	}
	return c.JSON(review)
}
