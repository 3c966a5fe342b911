package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Typed errors below match them through errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrCycle           = errors.New("cycle detected")
	ErrStore           = errors.New("store failure")
	ErrPersonaNotFound = errors.New("persona not found")
)

// ValidationError carries every problem found with a single input item.
type ValidationError struct {
	Field    string
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a referenced id that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Kind, e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// CycleError reports an edge or import that would break acyclicity. Path lists the offending
// concepts in traversal order.
type CycleError struct {
	Path    []string
	Message string
}

func (e *CycleError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "cycle detected: " + e.PathString()
}

// PathString renders the path as "A -> B -> C".
func (e *CycleError) PathString() string { return strings.Join(e.Path, " -> ") }

func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

// WrapStore wraps err as a StoreError unless it is nil or already categorised.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
