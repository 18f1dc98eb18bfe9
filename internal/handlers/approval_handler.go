package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/services"
	"github.com/portal-hospitalario/backend/internal/session"
	"github.com/portal-hospitalario/backend/internal/store"
)

type ApprovalHandler struct {
	approvals *services.ApprovalService
}

func NewApprovalHandler(approvals *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

func (h *ApprovalHandler) List(c *fiber.Ctx) error {
	filter := store.ApprovalFilter{
		Status: listQuery[models.ApprovalStatus](c, "status"),
		Type:   listQuery[models.ApprovalType](c, "type"),
		Page:   pageQuery(c),
	}
	requests, total, err := h.approvals.List(c.UserContext(), session.CurrentUser(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(requests, total, filter.Page))
}

func (h *ApprovalHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	request, err := h.approvals.Create(c.UserContext(), session.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

func (h *ApprovalHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid request id")
	}
	request, err := h.approvals.Get(c.UserContext(), session.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(request)
}

func (h *ApprovalHandler) Decide(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid request id")
	}
	var req dto.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	request, err := h.approvals.Decide(c.UserContext(), session.CurrentUser(c), id, req.Decision, req.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(request)
}
