package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/services"
	"github.com/portal-hospitalario/backend/internal/session"
	"github.com/portal-hospitalario/backend/internal/store"
)

type InventoryHandler struct {
	inventory *services.InventoryService
}

func NewInventoryHandler(inventory *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

func (h *InventoryHandler) List(c *fiber.Ctx) error {
	filter := store.InventoryFilter{
		Categoria: c.Query("categoria"),
		Ubicacion: c.Query("ubicacion"),
		Q:         c.Query("q"),
		BajoStock: boolQuery(c, "bajo_stock"),
		Page:      pageQuery(c),
	}
	items, total, err := h.inventory.List(c.UserContext(), session.CurrentUser(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(items, total, filter.Page))
}

func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var req dto.InventoryItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	item, err := h.inventory.Create(c.UserContext(), session.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid item id")
	}
	item, err := h.inventory.Get(c.UserContext(), session.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *InventoryHandler) Update(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid item id")
	}
	var req dto.InventoryItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	item, err := h.inventory.Update(c.UserContext(), session.CurrentUser(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid item id")
	}
	var req dto.AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	item, err := h.inventory.Adjust(c.UserContext(), session.CurrentUser(c), id, req.Delta, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *InventoryHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "invalid item id")
	}
	if err := h.inventory.Delete(c.UserContext(), session.CurrentUser(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
