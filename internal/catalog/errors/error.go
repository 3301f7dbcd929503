// Package errors provides custom error types for catalog operations.
package errors

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUnavailable     = errors.New("catalog unavailable")
	ErrInvalidProduct  = errors.New("invalid product")
)
