package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/policy"
	"github.com/portal-hospitalario/backend/internal/store"
	"github.com/portal-hospitalario/backend/internal/store/memstore"
)

const (
	electroEmail   = "electromedicina@hospital.local"
	approverEmail  = "compras@hospital.local"
	approver2Email = "finanzas@hospital.local"
)

// fixture wires every service over a fresh in-memory store with one user
// per role of interest.
type fixture struct {
	st     *store.Store
	policy *policy.Policy
	audit  *AuditService

	tickets   *TicketService
	fallas    *FallaService
	approvals *ApprovalService
	inventory *InventoryService
	users     *UserService

	admin      *models.User
	presidente *models.User
	electro    *models.User
	approver   *models.User
	approver2  *models.User
	other      *models.User
}

func newFixture(t *testing.T, allowReopen bool) *fixture {
	t.Helper()
	st := memstore.New()
	approvers := []string{approverEmail, approver2Email}
	p := policy.New(electroEmail, approvers, allowReopen)
	audit := NewAuditService(st.Audit, p)

	f := &fixture{
		st:        st,
		policy:    p,
		audit:     audit,
		tickets:   NewTicketService(st.Tickets, audit, p),
		fallas:    NewFallaService(st.Fallas, st.Users, audit, p),
		approvals: NewApprovalService(st.Approvals, audit, p, approvers),
		inventory: NewInventoryService(st.Inventory, audit, p),
		users:     NewUserService(st.Users, audit, p),
	}
	f.admin = f.addUser(t, "sub-admin", "Ana Admin", "admin@hospital.local", models.RoleAdmin)
	f.presidente = f.addUser(t, "sub-pres", "Pedro Presidente", "presidencia@hospital.local", models.RolePresidente)
	f.electro = f.addUser(t, "sub-electro", "Elena Electro", electroEmail, models.RoleElectromedicina)
	f.approver = f.addUser(t, "sub-compras", "Carla Compras", approverEmail, models.RoleUser)
	f.approver2 = f.addUser(t, "sub-finanzas", "Fede Finanzas", approver2Email, models.RoleUser)
	f.other = f.addUser(t, "sub-other", "Otro Usuario", "other@x.com", models.RoleUser)
	return f
}

func (f *fixture) addUser(t *testing.T, id, name, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{ID: id, Name: name, Email: email, Role: role}
	if err := f.st.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("creating user %s: %v", email, err)
	}
	return u
}

// auditEntries returns every audit entry, newest first.
func (f *fixture) auditEntries(t *testing.T) []models.AuditLog {
	t.Helper()
	entries, _, err := f.st.Audit.List(context.Background(), store.AuditFilter{Page: store.Page{Limit: store.MaxLimit}})
	if err != nil {
		t.Fatalf("listing audit log: %v", err)
	}
	return entries
}

func (f *fixture) auditCount(t *testing.T) int64 {
	t.Helper()
	_, total, err := f.st.Audit.List(context.Background(), store.AuditFilter{})
	if err != nil {
		t.Fatalf("counting audit log: %v", err)
	}
	return total
}

func requireErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error %v, got %v", target, err)
	}
}

func requireValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if _, ok := verr.Fields[field]; !ok {
		t.Fatalf("expected validation message for %q, got %v", field, verr.Fields)
	}
}

func float(v float64) *float64 { return &v }

// uuidSeq hands out ids in order and repeats the last one when exhausted.
func uuidSeq(ids ...string) func() uuid.UUID {
	i := 0
	return func() uuid.UUID {
		id := uuid.MustParse(ids[i])
		if i < len(ids)-1 {
			i++
		}
		return id
	}
}

// Ids sharing their first 8 hex digits map to the same display id.
const (
	collidingA = "0f8a3c2e-0000-4000-8000-000000000001"
	collidingB = "0f8a3c2e-0000-4000-8000-000000000002"
	distinctC  = "7b1d9e40-0000-4000-8000-000000000003"
)
