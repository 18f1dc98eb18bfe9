package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/services"
	"github.com/portal-hospitalario/backend/internal/session"
)

type AuthHandler struct {
	identity *services.IdentityService
}

func NewAuthHandler(identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// Session exchanges an identity provider ID token for a portal session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	var req dto.SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.IDToken == "" {
		return badParam(c, "id_token", "identity token is required")
	}

	resp, err := h.identity.Login(c.UserContext(), req.IDToken)
	if err != nil {
		if errors.Is(err, services.ErrDependency) {
			return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
				Error: true, Message: "Identity provider unavailable, try again later",
			})
		}
		return respondError(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := session.CurrentUser(c)
	if user == nil {
		return respondError(c, services.ErrUnauthenticated)
	}
	return c.JSON(user)
}
