package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/services"
	"github.com/portal-hospitalario/backend/internal/session"
	"github.com/portal-hospitalario/backend/internal/store"
)

// AdminHandler serves the audit log and user management, both restricted
// to override roles by the services.
type AdminHandler struct {
	audit *services.AuditService
	users *services.UserService
}

func NewAdminHandler(audit *services.AuditService, users *services.UserService) *AdminHandler {
	return &AdminHandler{audit: audit, users: users}
}

func (h *AdminHandler) AuditLogs(c *fiber.Ctx) error {
	filter := store.AuditFilter{
		User:   c.Query("user"),
		Action: c.Query("action"),
		Page:   pageQuery(c),
	}
	entries, total, err := h.audit.List(c.UserContext(), session.CurrentUser(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(entries, total, filter.Page))
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext(), session.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": users, "total": len(users)})
}

func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	// Subjects such as "auth0|123" arrive percent-encoded.
	userID, err := url.PathUnescape(c.Params("id"))
	if err != nil || userID == "" {
		return badParam(c, "id", "invalid user id")
	}
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	user, err := h.users.ChangeRole(c.UserContext(), session.CurrentUser(c), userID, models.Role(req.Role), req.Department)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
