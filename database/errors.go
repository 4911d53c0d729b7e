package database

import (
	"errors"
	"fmt"

	"github.com/anjiri1684/skill_bridge/services"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNumericOutOfRange   = "22003"
)

// translate maps driver errors onto service error kinds. what names the
// record for messages.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.NotFound("%s not found", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return services.Conflict("%s already exists", what)
		case pgForeignKeyViolation:
			return services.Validation("%s references a missing record", what)
		case pgNumericOutOfRange:
			return services.Validation("%s has a value out of range", what)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
