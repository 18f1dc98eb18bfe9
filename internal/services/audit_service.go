package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/policy"
	"github.com/portal-hospitalario/backend/internal/store"
)

// Audit actions.
const (
	ActionAccessDenied      = "Acceso Denegado"
	ActionUserCreated       = "Usuario Creado"
	ActionUserRoleChanged   = "Rol Actualizado"
	ActionTicketCreated     = "Ticket Created"
	ActionTicketStatus      = "Ticket Status Changed"
	ActionTicketPriority    = "Ticket Priority Changed"
	ActionTicketComment     = "Ticket Comment Added"
	ActionTicketAttachment  = "Ticket Attachment Added"
	ActionFallaCreated      = "Falla Creada"
	ActionFallaTransition   = "Falla Transicion"
	ActionFallaAssigned     = "Falla Asignada"
	ActionFallaAttachment   = "Falla Adjunto Agregado"
	ActionApprovalCreated   = "Solicitud Creada"
	ActionApprovalDecision  = "Solicitud Decidida"
	ActionInventoryCreated  = "Inventario Creado"
	ActionInventoryUpdated  = "Inventario Actualizado"
	ActionInventoryAdjusted = "Inventario Ajustado"
	ActionInventoryDeleted  = "Inventario Eliminado"
)

// AuditService appends immutable entries to the audit log. Callers invoke
// Log only after their mutation has been persisted.
type AuditService struct {
	audit  store.AuditStore
	policy *policy.Policy
	now    func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewAuditService(audit store.AuditStore, p *policy.Policy) *AuditService {
	return &AuditService{audit: audit, policy: p, now: time.Now}
}

// Log appends an entry. Timestamps handed out by one AuditService are
// strictly increasing so newest-first ordering is total.
func (s *AuditService) Log(ctx context.Context, userEmail, action, details, entityType, entityID string) error {
	entry := &models.AuditLog{
		ID:         uuid.New(),
		Timestamp:  s.nextTimestamp(),
		User:       userEmail,
		Action:     action,
		Details:    details,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		slog.Error("failed to append audit entry", "action", action, "user_email", userEmail, "error", err)
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Record is Log for callers whose mutation already succeeded: a failed
// append is reported through slog and does not undo or fail the request.
func (s *AuditService) Record(ctx context.Context, userEmail, action, details, entityType, entityID string) {
	_ = s.Log(ctx, userEmail, action, details, entityType, entityID)
}

// Denied records a refused access attempt and returns ErrForbidden so
// callers can `return s.audit.Denied(...)`.
func (s *AuditService) Denied(ctx context.Context, u *models.User, what string) error {
	email := "anonymous"
	if u != nil {
		email = u.Email
	}
	s.Record(ctx, email, ActionAccessDenied, what, "", "")
	return ErrForbidden
}

// List returns entries newest first. Only override roles may read the log.
func (s *AuditService) List(ctx context.Context, actor *models.User, filter store.AuditFilter) ([]models.AuditLog, int64, error) {
	if !s.policy.CanAccess(actor, policy.ModuleAudit) {
		return nil, 0, s.Denied(ctx, actor, "audit log")
	}
	return s.audit.List(ctx, filter)
}

func (s *AuditService) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now().UTC().Truncate(time.Microsecond)
	if !ts.After(s.last) {
		ts = s.last.Add(time.Microsecond)
	}
	s.last = ts
	return ts
}
