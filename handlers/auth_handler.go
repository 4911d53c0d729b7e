package handlers

import (
	"time"

	"github.com/anjiri1684/skill_bridge/middleware"
	"github.com/anjiri1684/skill_bridge/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	base
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{base: base{timeout: timeout}, auth: auth}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.auth.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	token, user, err := h.auth.Login(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"token": token, "user": user})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.auth.Me(ctx, middleware.ActorFrom(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	var req services.UpdateUserInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	user, err := h.auth.UpdateMe(ctx, middleware.ActorFrom(c).UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(user)
}
