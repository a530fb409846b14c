// Package repository defines the entity store contract and its
// implementations, together with the error values shared by every
// implementation.  These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without knowing which engine produced them.
package repository

import (
    "errors"
    "fmt"
)

// ErrNotFound is returned when an operation needs an entity that does
// not exist.  Plain lookups report absence through their found flag
// instead.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// existing state.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by CreateUser for a duplicate email.
var ErrEmailExists = fmt.Errorf("%w: email already exists", ErrConflict)

// ErrInsufficientStock is the kind shared by every stock failure.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockError reports that a product cannot cover a requested quantity.
type StockError struct {
    ProductID string
    Requested int
    Available int
}

func (e *StockError) Error() string {
    return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
