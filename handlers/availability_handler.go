package handlers

import (
	"time"

	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/anjiri1684/skill_bridge/services"
	"github.com/gofiber/fiber/v2"
)

type AvailabilityHandler struct {
	base
	availability *services.AvailabilityService
}

func NewAvailabilityHandler(availability *services.AvailabilityService, timeout time.Duration) *AvailabilityHandler {
	return &AvailabilityHandler{base: base{timeout: timeout}, availability: availability}
}

type bulkWindowsRequest struct {
	Windows []services.AddWindowInput `json:"windows" validate:"required,min=1,dive"`
}

func (h *AvailabilityHandler) Add(c *fiber.Ctx) error {
	var req services.AddWindowInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	window, err := h.availability.AddWindow(ctx, middleware.ActorFrom(c).UserID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(window)
}

// ListForTutor returns the tutor's active windows grouped by day.
func (h *AvailabilityHandler) ListForTutor(c *fiber.Ctx) error {
	tutorID, err := uuidParam(c, "tutorId")
	if err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	grouped, err := h.availability.ListForTutor(ctx, tutorID)
	if err != nil {
		return err
	}
	return c.JSON(grouped)
}

func (h *AvailabilityHandler) Update(c *fiber.Ctx) error {
	windowID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req services.UpdateWindowInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	window, err := h.availability.Update(ctx, windowID, middleware.ActorFrom(c).UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(window)
}

func (h *AvailabilityHandler) Remove(c *fiber.Ctx) error {
	windowID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.availability.Remove(ctx, windowID, middleware.ActorFrom(c).UserID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AvailabilityHandler) Toggle(c *fiber.Ctx) error {
	windowID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	window, err := h.availability.ToggleActive(ctx, windowID, middleware.ActorFrom(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(window)
}

func (h *AvailabilityHandler) Bulk(c *fiber.Ctx) error {
	var req bulkWindowsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	windows, err := h.availability.BulkAdd(ctx, middleware.ActorFrom(c).UserID, req.Windows)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(windows)
}
