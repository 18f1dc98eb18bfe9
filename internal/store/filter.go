package store

import (
	"strings"
	"time"

	"github.com/portal-hospitalario/backend/internal/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page clamps a limit/offset pair to the bounds the API accepts.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type TicketFilter struct {
	Status   []models.TicketStatus
	Priority []models.TicketPriority
	UserID   string
	Q        string
	Page
}

func (f TicketFilter) Matches(t *models.Ticket) bool {
	if len(f.Status) > 0 && !contains(f.Status, t.Status) {
		return false
	}
	if len(f.Priority) > 0 && !contains(f.Priority, t.Priority) {
		return false
	}
	if f.UserID != "" && t.UserID != f.UserID {
		return false
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		return containsFold(q, t.Subject, t.Description, t.DisplayID)
	}
	return true
}

// FallaFilter selects fallas. Set-valued fields match on membership; an
// empty set places no constraint. Desde/Hasta bound FechaDeteccion
// inclusively.
type FallaFilter struct {
	Severidad []models.Severidad
	Estado    []models.EstadoFalla
	Ubicacion string
	TipoFalla []models.TipoFalla
	TecnicoID string
	Desde     *time.Time
	Hasta     *time.Time
	Q         string
	Page
}

func (f FallaFilter) Matches(x *models.Falla) bool {
	if len(f.Severidad) > 0 && !contains(f.Severidad, x.Severidad) {
		return false
	}
	if len(f.Estado) > 0 && !contains(f.Estado, x.Estado) {
		return false
	}
	if f.Ubicacion != "" && x.Ubicacion != f.Ubicacion {
		return false
	}
	if len(f.TipoFalla) > 0 && !contains(f.TipoFalla, x.TipoFalla) {
		return false
	}
	if f.TecnicoID != "" && (x.AsignadoAID == nil || *x.AsignadoAID != f.TecnicoID) {
		return false
	}
	if f.Desde != nil && x.FechaDeteccion.Before(*f.Desde) {
		return false
	}
	if f.Hasta != nil && x.FechaDeteccion.After(*f.Hasta) {
		return false
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		return containsFold(q, x.Titulo, x.Descripcion, x.EquipoNombre, x.EquipoModelo, x.EquipoSerie)
	}
	return true
}

type ApprovalFilter struct {
	Status      []models.ApprovalStatus
	Type        []models.ApprovalType
	RequesterID string
	Page
}

func (f ApprovalFilter) Matches(r *models.ApprovalRequest) bool {
	if len(f.Status) > 0 && !contains(f.Status, r.Status) {
		return false
	}
	if len(f.Type) > 0 && !contains(f.Type, r.Type) {
		return false
	}
	if f.RequesterID != "" && r.RequesterID != f.RequesterID {
		return false
	}
	return true
}

type InventoryFilter struct {
	Categoria string
	Ubicacion string
	Q         string
	BajoStock bool
	Page
}

func (f InventoryFilter) Matches(i *models.InventoryItem) bool {
	if f.Categoria != "" && i.Categoria != f.Categoria {
		return false
	}
	if f.Ubicacion != "" && i.Ubicacion != f.Ubicacion {
		return false
	}
	if f.BajoStock && !i.LowStock() {
		return false
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		return containsFold(q, i.Nombre, i.Notas)
	}
	return true
}

type AuditFilter struct {
	User   string
	Action string
	Page
}

func (f AuditFilter) Matches(e *models.AuditLog) bool {
	if f.User != "" && e.User != f.User {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return true
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsFold(q string, fields ...string) bool {
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
