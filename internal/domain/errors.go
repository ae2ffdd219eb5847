package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by repositories, services and transport.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrAllocationConflict = errors.New("allocation conflict")
	ErrDuplicate          = errors.New("duplicate record")
	ErrConflict           = errors.New("conflicting state")
	ErrAlreadySold        = errors.New("serial already sold")
	ErrPersistence        = errors.New("persistence failure")
)

// ValidationError carries the itemized input problems found before any write.
type ValidationError struct {
	Issues []string
}

// NewValidationError builds a ValidationError from one or more issues
func NewValidationError(issues ...string) *ValidationError {
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Issues, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add appends an issue
func (e *ValidationError) Add(format string, args ...any) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

// OrNil returns nil when no issue was recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// AllocationConflictError reports a serial or stock row consumed by a
// concurrent sale between selection and confirmation.
type AllocationConflictError struct {
	Line   int
	Serial string
	Reason string
}

func (e *AllocationConflictError) Error() string {
	if e.Serial != "" {
		return fmt.Sprintf("%s: line %d: serial %s %s", ErrAllocationConflict, e.Line, e.Serial, e.Reason)
	}
	return fmt.Sprintf("%s: line %d: %s", ErrAllocationConflict, e.Line, e.Reason)
}

func (e *AllocationConflictError) Unwrap() error { return ErrAllocationConflict }

// PersistenceError wraps a store failure. It matches both ErrPersistence and
// the underlying cause.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// Persistence wraps err unless it already belongs to the taxonomy.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTaxonomy(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsTaxonomy reports whether err already matches one of the typed failures.
func IsTaxonomy(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrNotFound, ErrAllocationConflict,
		ErrDuplicate, ErrConflict, ErrAlreadySold, ErrPersistence,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
