package models

import (
	"strings"

	"github.com/google/uuid"
)

func shortID(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
