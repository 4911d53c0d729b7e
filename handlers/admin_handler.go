package handlers

import (
	"strconv"
	"time"

	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/anjiri1684/skill_bridge/models"
	"github.com/anjiri1684/skill_bridge/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	base
	auth    *services.AuthService
	tutors  *services.TutorService
	reviews *services.ReviewService
}

func NewAdminHandler(auth *services.AuthService, tutors *services.TutorService, reviews *services.ReviewService, timeout time.Duration) *AdminHandler {
	return &AdminHandler{base: base{timeout: timeout}, auth: auth, tutors: tutors, reviews: reviews}
}

type userStatusRequest struct {
	Status models.AccountStatus `json:"status" validate:"required,oneof=ACTIVE SUSPENDED BANNED"`
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	filter := services.UserFilter{Page: page, Limit: limit, Search: c.Query("search")}

	ctx, cancel := h.ctx(c)
	defer cancel()

	users, err := h.auth.ListUsers(ctx, middleware.ActorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (h *AdminHandler) SetUserStatus(c *fiber.Ctx) error {
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req userStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.auth.SetUserStatus(ctx, middleware.ActorFrom(c), userID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *AdminHandler) HideReview(c *fiber.Ctx) error {
	reviewID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	review, err := h.reviews.Hide(ctx, middleware.ActorFrom(c), reviewID)
	if err != nil {
		return err
	}
	return c.JSON(review)
}

func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var req services.CreateCategoryInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	category, err := h.tutors.CreateCategory(ctx, middleware.ActorFrom(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}
