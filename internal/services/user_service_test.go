package services

import (
	"context"
	"testing"

	"github.com/portal-hospitalario/backend/internal/models"
)

func TestChangeRole(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.users.ChangeRole(ctx, f.electro, f.other.ID, models.RoleAdmin, "")
	requireErrorIs(t, err, ErrForbidden)

	_, err = f.users.ChangeRole(ctx, f.admin, f.other.ID, "Root", "")
	requireValidationField(t, err, "role")

	_, err = f.users.ChangeRole(ctx, f.admin, "sub-missing", models.RoleUser, "")
	requireErrorIs(t, err, ErrNotFound)

	got, err := f.users.ChangeRole(ctx, f.admin, f.other.ID, models.RoleElectromedicina, "Mantenimiento")
	if err != nil {
		t.Fatalf("ChangeRole: %v", err)
	}
	if got.Role != models.RoleElectromedicina || got.Department != "Mantenimiento" {
		t.Fatalf("user = %+v", got)
	}
	if a := f.auditEntries(t)[0].Action; a != ActionUserRoleChanged {
		t.Errorf("audit action = %q", a)
	}

	users, err := f.users.List(ctx, f.presidente)
	if err != nil || len(users) != 6 {
		t.Fatalf("List = %d, %v", len(users), err)
	}
}
