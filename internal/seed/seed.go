// Package seed bootstraps staff accounts before their first login. Seeded
// users are keyed by "seed|<email>" until the identity resolver links them
// to their provider subject.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/store"
	"gopkg.in/yaml.v3"
)

// Account is one entry of a seed file.
type Account struct {
	Email      string `yaml:"email"`
	Name       string `yaml:"name"`
	Role       string `yaml:"role"`
	Department string `yaml:"department"`
}

type File struct {
	Accounts []Account `yaml:"accounts"`
}

// Result summarises an Apply run.
type Result struct {
	Created int
	Updated int
}

// Defaults is used when no seed file is configured.
var Defaults = File{
	Accounts: []Account{
		{Email: "admin@hospital.local", Name: "Administrador", Role: string(models.RoleAdmin), Department: "Direccion"},
		{Email: "presidencia@hospital.local", Name: "Presidencia", Role: string(models.RolePresidente), Department: "Direccion"},
		{Email: "electromedicina@hospital.local", Name: "Electromedicina", Role: string(models.RoleElectromedicina), Department: "Electromedicina"},
	},
}

// Load reads a YAML seed file. An empty path returns Defaults.
func Load(path string) (*File, error) {
	if path == "" {
		f := Defaults
		return &f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate rejects entries without an email, with an unknown role, or
// listed twice.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Accounts))
	for i, a := range f.Accounts {
		email := models.NormalizeEmail(a.Email)
		if email == "" || !strings.Contains(email, "@") {
			return fmt.Errorf("account %d: invalid email %q", i, a.Email)
		}
		if a.Role != "" && !models.ValidRoles[models.Role(a.Role)] {
			return fmt.Errorf("account %d (%s): unknown role %q", i, email, a.Role)
		}
		if seen[email] {
			return fmt.Errorf("account %d: duplicate email %s", i, email)
		}
		seen[email] = true
	}
	return nil
}

// Apply upserts every account by email. Running it twice is a no-op for
// the user count.
func Apply(ctx context.Context, users store.UserStore, f *File) (Result, error) {
	var res Result
	for _, a := range f.Accounts {
		role := models.Role(a.Role)
		if role == "" {
			role = models.RoleUser
		}
		u := &models.User{
			ID:         models.SeedUserID(a.Email),
			Name:       strings.TrimSpace(a.Name),
			Email:      models.NormalizeEmail(a.Email),
			Role:       role,
			Department: strings.TrimSpace(a.Department),
		}
		created, err := users.UpsertByEmail(ctx, u)
		if err != nil {
			return res, fmt.Errorf("seeding %s: %w", u.Email, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}
