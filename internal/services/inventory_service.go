package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/policy"
	"github.com/portal-hospitalario/backend/internal/store"
)

type InventoryService struct {
	items  store.InventoryStore
	audit  *AuditService
	policy *policy.Policy
}

func NewInventoryService(items store.InventoryStore, audit *AuditService, p *policy.Policy) *InventoryService {
	return &InventoryService{items: items, audit: audit, policy: p}
}

func (s *InventoryService) gate(ctx context.Context, actor *models.User, what string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !s.policy.CanAccess(actor, policy.ModuleInventory) {
		return s.audit.Denied(ctx, actor, what)
	}
	return nil
}

func validateItem(req *dto.InventoryItemRequest) error {
	errs := fieldErrors{}
	if strings.TrimSpace(req.Nombre) == "" {
		errs.add("nombre", "el nombre es obligatorio")
	}
	if req.Cantidad < 0 {
		errs.add("cantidad", "la cantidad no puede ser negativa")
	}
	if req.StockMinimo < 0 {
		errs.add("stock_minimo", "el stock mínimo no puede ser negativo")
	}
	return errs.err()
}

func applyItem(item *models.InventoryItem, req *dto.InventoryItemRequest) {
	item.Nombre = strings.TrimSpace(req.Nombre)
	item.Categoria = strings.TrimSpace(req.Categoria)
	item.Cantidad = req.Cantidad
	item.StockMinimo = req.StockMinimo
	item.Unidad = strings.TrimSpace(req.Unidad)
	item.Ubicacion = strings.TrimSpace(req.Ubicacion)
	item.Notas = strings.TrimSpace(req.Notas)
}

func (s *InventoryService) Create(ctx context.Context, actor *models.User, req *dto.InventoryItemRequest) (*models.InventoryItem, error) {
	if err := s.gate(ctx, actor, "inventario: crear"); err != nil {
		return nil, err
	}
	if err := validateItem(req); err != nil {
		return nil, err
	}
	item := &models.InventoryItem{ID: uuid.New()}
	applyItem(item, req)
	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}
	s.audit.Record(ctx, actor.Email, ActionInventoryCreated,
		fmt.Sprintf("%s (%d)", item.Nombre, item.Cantidad), "inventory", item.ID.String())
	return item, nil
}

func (s *InventoryService) List(ctx context.Context, actor *models.User, filter store.InventoryFilter) ([]models.InventoryItem, int64, error) {
	if err := s.gate(ctx, actor, "inventario: listar"); err != nil {
		return nil, 0, err
	}
	return s.items.Find(ctx, filter)
}

func (s *InventoryService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.InventoryItem, error) {
	if err := s.gate(ctx, actor, "inventario: ver"); err != nil {
		return nil, err
	}
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "inventory item")
	}
	return item, nil
}

func (s *InventoryService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req *dto.InventoryItemRequest) (*models.InventoryItem, error) {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateItem(req); err != nil {
		return nil, err
	}
	applyItem(item, req)
	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}
	s.audit.Record(ctx, actor.Email, ActionInventoryUpdated, item.Nombre, "inventory", item.ID.String())
	return item, nil
}

// Adjust adds delta (negative to consume) to the stock on hand.
func (s *InventoryService) Adjust(ctx context.Context, actor *models.User, id uuid.UUID, delta int, reason string) (*models.InventoryItem, error) {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, &ValidationError{Fields: map[string]string{"delta": "el ajuste no puede ser cero"}}
	}
	if item.Cantidad+delta < 0 {
		return nil, &ValidationError{Fields: map[string]string{
			"delta": fmt.Sprintf("stock insuficiente: hay %d, se pidió %d", item.Cantidad, -delta),
		}}
	}
	before := item.Cantidad
	item.Cantidad += delta
	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to adjust inventory item: %w", err)
	}

	details := fmt.Sprintf("%s: %d -> %d", item.Nombre, before, item.Cantidad)
	if reason = strings.TrimSpace(reason); reason != "" {
		details += " (" + reason + ")"
	}
	s.audit.Record(ctx, actor.Email, ActionInventoryAdjusted, details, "inventory", item.ID.String())
	return item, nil
}

func (s *InventoryService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	item, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return notFound(err, "inventory item")
	}
	s.audit.Record(ctx, actor.Email, ActionInventoryDeleted, item.Nombre, "inventory", item.ID.String())
	return nil
}
