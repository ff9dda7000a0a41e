package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-materiel/gate"
	"github.com/diewo77/go-materiel/internal/policy"
	"github.com/diewo77/go-materiel/validation"
	"gorm.io/gorm"
)

// Error kinds returned by every service. Callers match them with errors.Is.
var (
	ErrNotFound     = errors.New("not_found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid_state")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation_failed")
)

// ValidationError lists the offending fields. It matches ErrValidation.
type ValidationError struct {
	Fields validation.Violations
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, code := range e.Fields {
		parts = append(parts, f+": "+code)
	}
	return "validation_failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Fields: v}
}

func invalidField(field, code string) error {
	return &ValidationError{Fields: validation.Violations{field: code}}
}

func notFound(kind string, id uint) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
}

// lookupErr turns gorm's record-not-found into ErrNotFound.
func lookupErr(err error, kind string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(kind, id)
	}
	return err
}

// isUniqueViolation recognises duplicate-key errors from postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// authorize runs the gate and reports a denial as ErrForbidden.
func authorize(ctx context.Context, g *gate.Gate[policy.Principal], p policy.Principal, action gate.Action, kind string, resource any) error {
	err := g.Authorize(ctx, p, action, kind, resource)
	if errors.Is(err, gate.ErrUnauthorized) {
		return fmt.Errorf("%w: %s %s", ErrForbidden, action, kind)
	}
	return err
}
