package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/portal-hospitalario/backend/internal/blob"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/services"
	"github.com/portal-hospitalario/backend/internal/session"
	"github.com/portal-hospitalario/backend/internal/store"
)

type FallaHandler struct {
	fallas *services.FallaService
	blobs  blob.Storage
}

func NewFallaHandler(fallas *services.FallaService, blobs blob.Storage) *FallaHandler {
	return &FallaHandler{fallas: fallas, blobs: blobs}
}

func (h *FallaHandler) Listar(c *fiber.Ctx) error {
	desde, err := timeQuery(c, "desde", false)
	if err != nil {
		return badParam(c, "desde", "fecha invalida")
	}
	hasta, err := timeQuery(c, "hasta", true)
	if err != nil {
		return badParam(c, "hasta", "fecha invalida")
	}

	filter := store.FallaFilter{
		Severidad: upperListQuery[models.Severidad](c, "severidad"),
		Estado:    upperListQuery[models.EstadoFalla](c, "estado"),
		TipoFalla: upperListQuery[models.TipoFalla](c, "tipo_falla"),
		Ubicacion: c.Query("ubicacion"),
		TecnicoID: c.Query("tecnico_id"),
		Desde:     desde,
		Hasta:     hasta,
		Q:         c.Query("q"),
		Page:      pageQuery(c),
	}

	fallas, total, err := h.fallas.Listar(c.UserContext(), session.CurrentUser(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse(fallas, total, filter.Page))
}

func (h *FallaHandler) Crear(c *fiber.Ctx) error {
	var req dto.CrearFallaRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	falla, err := h.fallas.Crear(c.UserContext(), session.CurrentUser(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(falla)
}

func (h *FallaHandler) Obtener(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "id de falla invalido")
	}
	falla, err := h.fallas.Obtener(c.UserContext(), session.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(falla)
}

func (h *FallaHandler) Transicionar(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "id de falla invalido")
	}
	var req dto.TransicionFallaRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	falla, err := h.fallas.Transicionar(c.UserContext(), session.CurrentUser(c), id, req.Estado, req.Nota)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(falla)
}

func (h *FallaHandler) Asignar(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "id de falla invalido")
	}
	var req dto.AsignarFallaRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	falla, err := h.fallas.Asignar(c.UserContext(), session.CurrentUser(c), id, req.TecnicoID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(falla)
}

func (h *FallaHandler) AgregarAdjunto(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "id de falla invalido")
	}
	var req dto.AttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	falla, err := h.fallas.AgregarAdjunto(c.UserContext(), session.CurrentUser(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(falla)
}

func (h *FallaHandler) UploadURL(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return badParam(c, "id", "id de falla invalido")
	}
	var req dto.UploadURLRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if req.FileName == "" {
		return badParam(c, "file_name", "nombre de archivo requerido")
	}
	falla, err := h.fallas.Obtener(c.UserContext(), session.CurrentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return presign(c, h.blobs, "fallas/"+falla.ID.String(), &req)
}
