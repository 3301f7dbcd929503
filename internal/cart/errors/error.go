// Package errors provides the typed outcomes of cart operations.
//
// Every failed operation returns an error that matches exactly one kind
// (ErrStockExceeded, ErrNotFound, ErrTransient) and the sentinel of the
// operation that failed (ErrAddProduct, ErrRemoveProduct, ErrUpdateProductAmount).
package errors

import "errors"

// Kinds.
var (
	ErrStockExceeded = errors.New("requested quantity unavailable")
	ErrNotFound      = errors.New("product not in cart")
	ErrTransient     = errors.New("transient failure")
)

// Operations.
var (
	ErrAddProduct          = errors.New("failed to add product")
	ErrRemoveProduct       = errors.New("failed to remove product")
	ErrUpdateProductAmount = errors.New("failed to update product quantity")
)

// ErrMalformedSnapshot is returned when a persisted cart cannot be decoded.
var ErrMalformedSnapshot = errors.New("malformed cart snapshot")
