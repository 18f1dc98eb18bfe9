// Package store defines the persistence contract every service depends on.
// Implementations live in gormstore (PostgreSQL) and memstore (in-process,
// used by tests and local development).
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a create hits a unique key.
	ErrDuplicate = errors.New("duplicate key")
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// ChangeID re-keys a user, used when a seeded account logs in for the
	// first time under its identity provider subject.
	ChangeID(ctx context.Context, oldID, newID string) error
	// UpsertByEmail creates the user or overwrites name, role and
	// department on the existing record with the same email.
	UpsertByEmail(ctx context.Context, user *models.User) (created bool, err error)
}

type TicketStore interface {
	Find(ctx context.Context, filter TicketFilter) ([]models.Ticket, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	Create(ctx context.Context, ticket *models.Ticket) error
	Update(ctx context.Context, ticket *models.Ticket) error
}

type FallaStore interface {
	Find(ctx context.Context, filter FallaFilter) ([]models.Falla, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Falla, error)
	Create(ctx context.Context, falla *models.Falla) error
	Update(ctx context.Context, falla *models.Falla) error
}

type ApprovalStore interface {
	Find(ctx context.Context, filter ApprovalFilter) ([]models.ApprovalRequest, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error)
	Create(ctx context.Context, req *models.ApprovalRequest) error
	Update(ctx context.Context, req *models.ApprovalRequest) error
}

type InventoryStore interface {
	Find(ctx context.Context, filter InventoryFilter) ([]models.InventoryItem, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	Create(ctx context.Context, item *models.InventoryItem) error
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditStore is append-only.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int64, error)
}

// Store bundles the per-entity stores. It is built once per process and
// passed explicitly to every service.
type Store struct {
	Users     UserStore
	Tickets   TicketStore
	Fallas    FallaStore
	Approvals ApprovalStore
	Inventory InventoryStore
	Audit     AuditStore
}
