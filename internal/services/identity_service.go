package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/portal-hospitalario/backend/internal/config"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/store"
)

// IdentityService maps identity provider principals onto portal users and
// issues the session tokens the API accepts.
type IdentityService struct {
	users    store.UserStore
	audit    *AuditService
	verifier TokenVerifier
	cfg      *config.Config
	now      func() time.Time
}

func NewIdentityService(users store.UserStore, audit *AuditService, verifier TokenVerifier, cfg *config.Config) *IdentityService {
	return &IdentityService{
		users:    users,
		audit:    audit,
		verifier: verifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Login verifies the provider token, resolves the user and returns a session.
func (s *IdentityService) Login(ctx context.Context, idToken string) (*dto.SessionResponse, error) {
	principal, err := s.verifier.Verify(ctx, strings.TrimSpace(idToken))
	if err != nil {
		return nil, err
	}

	user, err := s.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.IssueSession(user)
	if err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Unix(),
		User:        user,
	}, nil
}

// Resolve returns the stored user for a principal. Role and department are
// owned by the portal and never taken from the provider. Principals without
// a verified email are refused.
func (s *IdentityService) Resolve(ctx context.Context, p *Principal) (*models.User, error) {
	if p == nil || p.Sub == "" {
		return nil, ErrUnauthenticated
	}
	email := models.NormalizeEmail(p.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrUnauthenticated)
	}
	// Accounts are linked and mirrored by email, so an unverified address
	// could claim someone else's record.
	if !p.EmailVerified {
		return nil, fmt.Errorf("%w: email %s is not verified by the identity provider", ErrUnauthenticated, email)
	}

	user, err := s.users.FindByID(ctx, p.Sub)
	if err == nil {
		if mirrorProfile(user, p, email) {
			if err := s.users.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to update user profile: %w", err)
			}
		}
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user, err = s.users.FindByEmail(ctx, email)
	if err == nil {
		if err := s.users.ChangeID(ctx, user.ID, p.Sub); err != nil {
			return nil, fmt.Errorf("failed to link user to identity: %w", err)
		}
		user.ID = p.Sub
		mirrorProfile(user, p, email)
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user profile: %w", err)
		}
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &models.User{
		ID:        p.Sub,
		Name:      p.Name,
		Email:     email,
		Role:      models.RoleUser,
		AvatarURL: p.Picture,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.audit.Record(ctx, user.Email, ActionUserCreated, "Primer inicio de sesion", "user", user.ID)
	return user, nil
}

// mirrorProfile copies provider-owned fields onto the user and reports
// whether anything changed.
func mirrorProfile(u *models.User, p *Principal, email string) bool {
	changed := false
	if p.Name != "" && u.Name != p.Name {
		u.Name = p.Name
		changed = true
	}
	if u.Email != email {
		u.Email = email
		changed = true
	}
	if p.Picture != "" && u.AvatarURL != p.Picture {
		u.AvatarURL = p.Picture
		changed = true
	}
	return changed
}

// IssueSession signs an HS256 access token for the user.
func (s *IdentityService) IssueSession(user *models.User) (string, time.Time, error) {
	if s.cfg.JWTSecret == "" {
		return "", time.Time{}, errors.New("session signing secret is not configured")
	}
	now := s.now()
	expiresAt := now.Add(s.cfg.JWTAccessExpiry)
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// CurrentUser loads the user a session token was issued to.
func (s *IdentityService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}
