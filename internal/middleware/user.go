package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/services"
	"github.com/portal-hospitalario/backend/internal/session"
)

// UserLoader resolves the subject of a session token to a stored user.
type UserLoader interface {
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

// LoadUser runs after JWTProtected. Role and department are read from
// storage on every request so role changes apply without a new login.
func LoadUser(loader UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := session.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		user, err := loader.CurrentUser(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized: unknown user",
				})
			}
			slog.Error("failed to load session user", "module", "auth", "user_id", userID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		session.SetUser(c, user)
		return c.Next()
	}
}
