package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/portal-hospitalario/backend/internal/blob"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/services"
	"github.com/portal-hospitalario/backend/internal/session"
	"github.com/portal-hospitalario/backend/internal/store"
)

type TicketHandler struct {
	tickets     *services.TicketService
	suggestions *services.SuggestionService
	blobs       blob.Storage
}

func NewTicketHandler(tickets *services.TicketService, suggestions *services.SuggestionService, blobs blob.Storage) *TicketHandler {
	return &TicketHandler{tickets: tickets, suggestions: suggestions, blobs: blobs}
}

func (h *TicketHandler) List(c *fiber.Ctx) error {
	filter := store.TicketFilter{
		Status:   listQuery[models.TicketStatus](c, "status"),
		Priority: listQuery[models.TicketPriority](c, "priority"),
		Q:        c.Query("q"),
		Page:     pageQuery(c),
	}
	if boolQuery(c, "mine") {
		if u := session.CurrentUser(c); u != nil {
			filter.UserID = u.ID
		}
	}

	tickets, total, err := h.tickets.List(c.UserContext(), session.CurrentUser(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(tickets, total, filter.Page))
}

func (h *TicketHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	ticket, err := h.tickets.Create(c.UserContext(), session.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

func (h *TicketHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid ticket id")
	}
	ticket, err := h.tickets.Get(c.UserContext(), session.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ticket)
}

func (h *TicketHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid ticket id")
	}
	var req dto.TicketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	ticket, err := h.tickets.Transition(c.UserContext(), session.CurrentUser(c), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ticket)
}

func (h *TicketHandler) UpdatePriority(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid ticket id")
	}
	var req dto.TicketPriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	ticket, err := h.tickets.ChangePriority(c.UserContext(), session.CurrentUser(c), id, req.Priority)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ticket)
}

func (h *TicketHandler) AddComment(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid ticket id")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	ticket, err := h.tickets.AddComment(c.UserContext(), session.CurrentUser(c), id, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

func (h *TicketHandler) AddAttachment(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid ticket id")
	}
	var req dto.AttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	ticket, err := h.tickets.AddAttachment(c.UserContext(), session.CurrentUser(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// UploadURL presigns a PUT for a new attachment. The client registers the
// returned storage key through AddAttachment once the upload finished.
func (h *TicketHandler) UploadURL(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid ticket id")
	}
	var req dto.UploadURLRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(req.FileName) == "" {
		return badParam(c, "file_name", "file name is required")
	}

	ticket, err := h.tickets.Get(c.UserContext(), session.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return presign(c, h.blobs, "tickets/"+ticket.ID.String(), &req)
}

// Suggestion returns an advisory AI answer. Provider failures are reported
// inline so the ticket view keeps working.
func (h *TicketHandler) Suggestion(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid ticket id")
	}

	resp, err := h.suggestions.Suggest(c.UserContext(), session.CurrentUser(c), id)
	switch {
	case err == nil:
		return c.JSON(resp)
	case errors.Is(err, services.ErrSuggestionSuperseded):
		return c.JSON(dto.SuggestionResponse{Stale: true})
	case errors.Is(err, services.ErrDependency):
		return c.JSON(dto.SuggestionResponse{
			Available: false,
			Warning:   "No se pudo obtener una sugerencia en este momento",
		})
	default:
		return respondError(c, err)
	}
}

func presign(c *fiber.Ctx, blobs blob.Storage, prefix string, req *dto.UploadURLRequest) error {
	url, key, err := blobs.PresignUpload(c.UserContext(), prefix, req.FileName, req.ContentType)
	if err != nil {
		if errors.Is(err, blob.ErrDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return respondError(c, &services.DependencyError{Service: "attachment storage", Err: err})
	}
	return c.JSON(dto.UploadURLResponse{URL: url, StorageKey: key})
}
