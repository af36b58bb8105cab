package persistence

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// translateError maps driver and GORM errors onto domain errors
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", shared.ErrAlreadyExists, err)
	}
	return err
}

// isUniqueViolation recognises unique-constraint failures from postgres and
// sqlite whether or not GORM's error translation is enabled
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// searchPattern builds a case-insensitive LIKE pattern
func searchPattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}
