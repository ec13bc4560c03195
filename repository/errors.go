package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrDuplicate  = errors.New("duplicate key")
	ErrNotFound   = errors.New("record not found")
	ErrStore      = errors.New("store unavailable")
)

// ValidationError names the field and the rule a record broke.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: field %s failed %q", ErrValidation, e.Field, e.Rule)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: verrs[0].Field(), Rule: verrs[0].Tag()}
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// translate maps gorm and driver errors onto the package's error taxonomy.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation), errors.Is(err, ErrDuplicate):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &ValidationError{Field: op, Rule: "check"}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrNotFound
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
	}
}

// Not every driver translates its errors for gorm.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
