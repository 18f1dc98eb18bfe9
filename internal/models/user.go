package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin           Role = "Admin"
	RolePresidente      Role = "Presidente"
	RoleElectromedicina Role = "Electromedicina"
	RoleUser            Role = "User"
)

var ValidRoles = map[Role]bool{
	RoleAdmin: true, RolePresidente: true, RoleElectromedicina: true, RoleUser: true,
}

// User is a staff member. ID is the identity provider subject, or
// "seed|<email>" for accounts bootstrapped before their first login.
type User struct {
	ID         string    `gorm:"size:255;primaryKey" json:"id"`
	Name       string    `gorm:"size:255" json:"name"`
	Email      string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Role       Role      `gorm:"size:30;not null;default:'User'" json:"role"`
	Department string    `gorm:"size:100" json:"department"`
	AvatarURL  string    `gorm:"size:1000" json:"avatar_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsOverride reports whether the user holds one of the roles that may
// act on any record regardless of assignment.
func (u *User) IsOverride() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RolePresidente)
}

// NormalizeEmail lowercases and trims an address for comparisons and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SeedUserID is the placeholder key given to bootstrapped accounts.
func SeedUserID(email string) string {
	return "seed|" + NormalizeEmail(email)
}
