package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/shopverse/internal/repository"
)

// Error kinds.  Every error a service returns matches exactly one of
// these with errors.Is; the handler layer maps kinds to status codes.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("authentication required")
	ErrNotFound          = repository.ErrNotFound
	ErrForbidden         = repository.ErrForbidden
	ErrConflict          = repository.ErrConflict
	ErrInsufficientStock = repository.ErrInsufficientStock
)

// ValidationError reports a single rejected input.  Msg is safe to show
// to the caller.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrDuplicateEmail     = repository.ErrEmailExists

	ErrInvalidEmail    error = &ValidationError{Field: "email", Msg: "please enter a valid email address"}
	ErrWeakPassword    error = &ValidationError{Field: "password", Msg: "password must be at least 6 characters"}
	ErrPasswordTooLong error = &ValidationError{Field: "password", Msg: "password cannot exceed 72 bytes"}

	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)

	ErrInvalidInput error = &ValidationError{Field: "order", Msg: "complete shipping address and payment method are required"}
	ErrEmptyCart    error = &ValidationError{Field: "cart", Msg: "cart is empty"}

	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)
)

// StockError is re-exported so callers only import service.
type StockError = repository.StockError

// ProductGoneError reports a cart line whose product was deleted.
type ProductGoneError struct {
	ProductID string
}

func (e *ProductGoneError) Error() string {
	return fmt.Sprintf("product %s no longer exists", e.ProductID)
}

func (e *ProductGoneError) Unwrap() error { return ErrValidation }
