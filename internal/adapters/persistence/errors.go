package persistence

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/example/mes/internal/apperr"
)

// translateWriteError maps constraint violations reported by gorm to the
// application error taxonomy. Anything else is wrapped as is.
func translateWriteError(err error, action, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Duplicate("%s already exists", resource)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Conflict("%s references or is referenced by another record", resource)
	default:
		return fmt.Errorf("failed to %s %s: %w", action, resource, err)
	}
}

func stamp(t *time.Time, now time.Time) {
	if t.IsZero() {
		*t = now
	}
}
