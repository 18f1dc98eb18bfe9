package memstore

import (
	"fmt"

	"github.com/portal-hospitalario/backend/internal/store"
)

func errDuplicate(key, value string) error {
	return fmt.Errorf("%w %s=%q", store.ErrDuplicate, key, value)
}
