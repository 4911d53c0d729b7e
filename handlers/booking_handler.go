package handlers

import (
	"fmt"
	"time"

	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/anjiri1684/skill_bridge/services"
	"github.com/gofiber/fiber/v2"
)

type BookingHandler struct {
	base
	bookings *services.BookingService
	reviews  *services.ReviewService
	receipts *services.ReceiptService
}

func NewBookingHandler(bookings *services.BookingService, reviews *services.ReviewService, receipts *services.ReceiptService, timeout time.Duration) *BookingHandler {
	return &BookingHandler{base: base{timeout: timeout}, bookings: bookings, reviews: reviews, receipts: receipts}
}

type cancelRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=1000"`
}

type completeRequest struct {
	TutorNotes *string `json:"tutorNotes" validate:"omitempty,max=2000"`
}

// Create reports every precondition failure other than a slot conflict as 400.
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	var req services.CreateBookingInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	booking, err := h.bookings.Create(ctx, middleware.ActorFrom(c).UserID, req)
	if err != nil {
		if se, ok := services.AsError(err); ok && se.Kind == services.KindNotFound {
			return writeError(c, fiber.StatusBadRequest, se)
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *BookingHandler) ListMine(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	list, err := h.bookings.ListMine(ctx, middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *BookingHandler) Stats(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	stats, err := h.bookings.Stats(ctx, middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func (h *BookingHandler) Get(c *fiber.Ctx) error {
	bookingID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	booking, err := h.bookings.Get(ctx, bookingID, middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

func (h *BookingHandler) Update(c *fiber.Ctx) error {
	bookingID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req services.UpdateBookingInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	booking, err := h.bookings.Update(ctx, bookingID, middleware.ActorFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	bookingID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req cancelRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	booking, err := h.bookings.Cancel(ctx, bookingID, middleware.ActorFrom(c).UserID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

func (h *BookingHandler) Complete(c *fiber.Ctx) error {
	bookingID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req completeRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	booking, err := h.bookings.MarkComplete(ctx, bookingID, middleware.ActorFrom(c).UserID, req.TutorNotes)
	if err != nil {
		return err
	}
	return c.JSON(booking)
}

func (h *BookingHandler) Review(c *fiber.Ctx) error {
	bookingID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req services.CreateReviewInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	review, err := h.reviews.Create(ctx, middleware.ActorFrom(c).UserID, bookingID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// Receipt streams the PDF receipt of a completed session.
func (h *BookingHandler) Receipt(c *fiber.Ctx) error {
	bookingID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	receipt, err := h.receipts.Generate(ctx, bookingID, middleware.ActorFrom(c))
	if err != nil {
		return err
	}
	if receipt.URL != "" {
		c.Set("X-Receipt-URL", receipt.URL)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=\"receipt-%s.pdf\"", receipt.BookingID))
	return c.Send(receipt.PDF)
}
