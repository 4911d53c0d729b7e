package handlers

import (
	"strconv"
	"time"

	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/anjiri1684/skill_bridge/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TutorHandler struct {
	base
	tutors  *services.TutorService
	reviews *services.ReviewService
}

func NewTutorHandler(tutors *services.TutorService, reviews *services.ReviewService, timeout time.Duration) *TutorHandler {
	return &TutorHandler{base: base{timeout: timeout}, tutors: tutors, reviews: reviews}
}

// Apply turns the caller into a tutor.
func (h *TutorHandler) Apply(c *fiber.Ctx) error {
	var req services.BecomeTutorInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	profile, err := h.tutors.BecomeTutor(ctx, middleware.ActorFrom(c).UserID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

func (h *TutorHandler) UpdateMe(c *fiber.Ctx) error {
	var req services.UpdateTutorInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	profile, err := h.tutors.UpdateProfile(ctx, middleware.ActorFrom(c).UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *TutorHandler) Get(c *fiber.Ctx) error {
	tutorID, err := uuidParam(c, "tutorId")
	if err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	profile, err := h.tutors.GetProfile(ctx, tutorID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *TutorHandler) Search(c *fiber.Ctx) error {
	filter, err := tutorFilter(c)
	if err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	list, err := h.tutors.Search(ctx, filter)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func tutorFilter(c *fiber.Ctx) (services.TutorFilter, error) {
	filter := services.TutorFilter{
		Subject: c.Query("subject"),
		SortBy:  c.Query("sortBy"),
	}
	if v := c.Query("categoryId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, services.Validation("invalid categoryId")
		}
		filter.CategoryID = &id
	}
	if v := c.Query("minRating"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, services.Validation("invalid minRating")
		}
		filter.MinRating = &d
	}
	if v := c.Query("maxRate"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, services.Validation("invalid maxRate")
		}
		filter.MaxRate = &d
	}
	if v := c.Query("availableOnly"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, services.Validation("invalid availableOnly")
		}
		filter.AvailableOnly = b
	}
	filter.Page, _ = strconv.Atoi(c.Query("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit", "20"))
	return filter, nil
}

func (h *TutorHandler) Reviews(c *fiber.Ctx) error {
	tutorID, err := uuidParam(c, "tutorId")
	if err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	reviews, err := h.reviews.ListForTutor(ctx, tutorID)
	if err != nil {
		return err
	}
	return c.JSON(reviews)
}

func (h *TutorHandler) Categories(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	categories, err := h.tutors.ListCategories(ctx)
	if err != nil {
		return err
	}
	return c.JSON(categories)
}
