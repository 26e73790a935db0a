package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrUniqueViolation is returned when a write collides with a unique column.
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrNotFound is returned by writes that matched no live row.
	ErrNotFound = errors.New("record not found")
)

// notDeleted limits a query to rows whose deleted_at is unset unless includeDeleted is true.
// Every soft-deletable read goes through it; there is no global query hook.
func notDeleted(table string, includeDeleted bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if includeDeleted {
			return db
		}
		return db.Where(table + ".deleted_at IS NULL")
	}
}

// translateWriteError maps driver specific unique violations onto ErrUniqueViolation.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return errors.Join(ErrUniqueViolation, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "duplicate key")
}
