package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/store"
)

func TestAuditOrderingAfterTransitions(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	const n = 6
	var ids []uuid.UUID
	for i := 0; i < n; i++ {
		falla, err := f.fallas.Crear(ctx, f.admin, bombaRota())
		if err != nil {
			t.Fatalf("Crear: %v", err)
		}
		ids = append(ids, falla.ID)
	}

	_, before, err := f.audit.List(ctx, f.admin, store.AuditFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	for _, id := range ids {
		if _, err := f.fallas.Transicionar(ctx, f.admin, id, "EN_DIAGNOSTICO", ""); err != nil {
			t.Fatalf("Transicionar: %v", err)
		}
	}

	entries, after, err := f.audit.List(ctx, f.admin, store.AuditFilter{Page: store.Page{Limit: store.MaxLimit}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if after-before != n {
		t.Fatalf("audit grew by %d, want %d", after-before, n)
	}
	for i := 1; i < len(entries); i++ {
		if !entries[i-1].Timestamp.After(entries[i].Timestamp) {
			t.Fatalf("entries %d and %d not strictly descending: %v, %v",
				i-1, i, entries[i-1].Timestamp, entries[i].Timestamp)
		}
	}
	// The newest entry belongs to the last transition.
	if entries[0].EntityID != ids[n-1].String() || entries[0].Action != ActionFallaTransition {
		t.Errorf("newest entry = %+v", entries[0])
	}
}

func TestAuditTimestampsStrictlyIncreaseWithFrozenClock(t *testing.T) {
	f := newFixture(t, false)
	frozen := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f.audit.now = func() time.Time { return frozen }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := f.audit.Log(ctx, "a@b.c", "Prueba", "", "", ""); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	entries := f.auditEntries(t)
	if len(entries) != 3 {
		t.Fatalf("entries = %d", len(entries))
	}
	if !entries[0].Timestamp.After(entries[1].Timestamp) || !entries[1].Timestamp.After(entries[2].Timestamp) {
		t.Fatalf("timestamps not strictly ordered: %v", entries)
	}
}

func TestAuditListRestrictedToOverrideRoles(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	for _, u := range []*models.User{f.electro, f.approver, f.other} {
		_, _, err := f.audit.List(ctx, u, store.AuditFilter{})
		requireErrorIs(t, err, ErrForbidden)
	}
	for _, u := range []*models.User{f.admin, f.presidente} {
		if _, _, err := f.audit.List(ctx, u, store.AuditFilter{}); err != nil {
			t.Fatalf("%s: %v", u.Role, err)
		}
	}

	entries, _, err := f.audit.List(ctx, f.admin, store.AuditFilter{Action: ActionAccessDenied})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("denials recorded = %d, want 3", len(entries))
	}
}

// failingTickets rejects every write.
type failingTickets struct {
	store.TicketStore
}

func (failingTickets) Create(context.Context, *models.Ticket) error {
	return errors.New("disk full")
}

func TestFailedMutationIsNotAudited(t *testing.T) {
	f := newFixture(t, false)
	svc := NewTicketService(failingTickets{f.st.Tickets}, f.audit, f.policy)

	_, err := svc.Create(context.Background(), f.other, &dto.CreateTicketRequest{
		Subject: "s", Description: "d", Priority: "Low",
	})
	if err == nil {
		t.Fatal("expected store failure to propagate")
	}
	if n := f.auditCount(t); n != 0 {
		t.Fatalf("audit entries = %d, want 0", n)
	}
}
