// Package session reads the authenticated caller from a Fiber context.
package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/portal-hospitalario/backend/internal/models"
)

const (
	tokenKey = "user"
	userKey  = "current_user"
)

// GetUserID extracts the user ID from the session token claims.
func GetUserID(c *fiber.Ctx) (string, error) {
	token, ok := c.Locals(tokenKey).(*jwt.Token)
	if !ok {
		return "", errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub claim")
	}
	return sub, nil
}

func SetUser(c *fiber.Ctx, u *models.User) {
	c.Locals(userKey, u)
}

// CurrentUser returns the user loaded for this request, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userKey).(*models.User)
	return u
}
