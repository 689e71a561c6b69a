package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/credenciales/internal/auth"
	"github.com/yourorg/credenciales/internal/middleware"
	"github.com/yourorg/credenciales/internal/models"
)

type AuthHandler struct {
	auth *auth.Service
}

func NewAuthHandler(s *auth.Service) *AuthHandler {
	return &AuthHandler{auth: s}
}

// Register handles POST /api/auth/register. Solo crea usuarios INVITADO.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	resp, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	resp, err := h.auth.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(resp)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := h.auth.Me(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(u.DTO())
}
