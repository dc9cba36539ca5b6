/*
errors.go - Error taxonomy for the inventory domain

ERROR CATEGORIES:
  InvalidInput       malformed or out-of-range field         -> 400
  ReferenceNotFound  dangling reference (supplier, stock)    -> 400
  NotFound           target of update/delete is absent       -> 404
  InsufficientStock  sufficiency check failed                -> 400
  Forbidden          ownership check failed                  -> 403

All of them are detected before any stock mutation is committed.

USAGE:
  if errors.Is(err, inventory.ErrInsufficientStock) { ... }

  var shortage *inventory.InsufficientStockError
  if errors.As(err, &shortage) {
      log(shortage.Available, shortage.Requested)
  }
*/
package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrForbidden         = errors.New("forbidden")

	// ErrConcurrentModification is returned when a guarded stock write lost
	// against another writer. The engine retries these.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ReferenceError is returned when an event points at an entity that does not exist.
type ReferenceError struct {
	Kind string // "supplier", "stock item"
	ID   int64
}

func (e *ReferenceError) Error() string {
	if e.Kind == "supplier" {
		return fmt.Sprintf("Invalid or not found supplier ID: %d", e.ID)
	}
	return fmt.Sprintf("Stock item not found with ID: %d", e.ID)
}

func (e *ReferenceError) Unwrap() error { return ErrReferenceNotFound }

// NotFoundError is returned when the target of a read, update or delete is absent.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %d", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError reports a failed sufficiency check.
//
// For a new usage Requested is the full quantity. For an update it is the
// additional quantity needed (the positive delta) and Additional is true.
type InsufficientStockError struct {
	StockItemID int64
	Available   decimal.Decimal
	Requested   decimal.Decimal
	Additional  bool
}

func (e *InsufficientStockError) Error() string {
	if e.Additional {
		return fmt.Sprintf("Insufficient stock. Available: %s, Additional quantity needed: %s",
			FormatQuantity(e.Available), FormatQuantity(e.Requested))
	}
	return fmt.Sprintf("Insufficient stock. Available: %s, Requested: %s",
		FormatQuantity(e.Available), FormatQuantity(e.Requested))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ForbiddenError is returned when a caller edits a usage recorded by someone else.
type ForbiddenError struct {
	Caller string
	Owner  string
}

func (e *ForbiddenError) Error() string {
	return "You are not authorized to update this record"
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrReferenceNotFound) ||
		errors.Is(err, ErrInsufficientStock)
}

// IsNotFound returns true if the error indicates a missing target entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// FormatQuantity renders whole numbers with one decimal place ("10.0") and
// everything else at its natural precision ("12.25").
func FormatQuantity(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}
