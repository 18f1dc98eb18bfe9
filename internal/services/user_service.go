package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/policy"
	"github.com/portal-hospitalario/backend/internal/store"
)

type UserService struct {
	users  store.UserStore
	audit  *AuditService
	policy *policy.Policy
}

func NewUserService(users store.UserStore, audit *AuditService, p *policy.Policy) *UserService {
	return &UserService{users: users, audit: audit, policy: p}
}

func (s *UserService) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	if !s.policy.CanAccess(actor, policy.ModuleUsers) {
		return nil, s.audit.Denied(ctx, actor, "users")
	}
	return s.users.List(ctx)
}

// ChangeRole sets a user's role and, when given, department.
func (s *UserService) ChangeRole(ctx context.Context, actor *models.User, userID string, role models.Role, department string) (*models.User, error) {
	if !s.policy.CanAccess(actor, policy.ModuleUsers) {
		return nil, s.audit.Denied(ctx, actor, "users")
	}

	errs := fieldErrors{}
	if !models.ValidRoles[role] {
		errs.add("role", "must be one of Admin, Presidente, Electromedicina, User")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	previous := user.Role
	user.Role = role
	if d := strings.TrimSpace(department); d != "" {
		user.Department = d
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.audit.Record(ctx, actor.Email, ActionUserRoleChanged,
		fmt.Sprintf("%s: %s -> %s", user.Email, previous, role), "user", user.ID)
	return user, nil
}
