package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidMove  = errors.New("invalid move")
	ErrValidation   = errors.New("validation failed")
	ErrInconsistent = errors.New("inconsistent tree state")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFoundError indicates a required node (or an id-scoped tree result) does not exist
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s [ %d ] not found", e.Resource, e.ID)
}

// Is allows errors.Is() to match against ErrNotFound
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

// ValidationError indicates invalid input or a violated level/parent invariant
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// InvalidMoveError is returned when the new parent lies inside the moved subtree
type InvalidMoveError struct {
	ID          int64
	NewParentID int64
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("cannot move %d under %d: new parent is among its descendants", e.ID, e.NewParentID)
}

func (e *InvalidMoveError) Is(target error) bool { return target == ErrInvalidMove }
func (e *InvalidMoveError) StatusCode() int { return http.StatusConflict }

// InconsistentError signals that a bulk write touched a different number of
// rows than requested. The enclosing transaction is always rolled back.
type InconsistentError struct {
	Op       string
	Expected int
	Affected int64
}

func (e *InconsistentError) Error() string {
	return fmt.Sprintf("%s: affected %d of %d rows, operation cancelled", e.Op, e.Affected, e.Expected)
}

func (e *InconsistentError) Is(target error) bool { return target == ErrInconsistent }
func (e *InconsistentError) StatusCode() int { return http.StatusConflict }

// NodeNotFound is shorthand for the most common not-found error.
func NodeNotFound(id int64) error {
	return &NotFoundError{Resource: "tree item", ID: id}
}
