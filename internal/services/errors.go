// Package services defines the gateway use-cases for employees.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidID is returned when an operation that addresses one employee
	// receives an empty id.
	ErrInvalidID = errors.New("employee id is required")

	// ErrDownstreamFailure marks the fatal outcome of the error-demo call
	// when the downstream service answered with a 5xx.
	ErrDownstreamFailure = errors.New("downstream server error")
)

// FatalError carries the downstream error text of a 5xx answer. Its message
// is exactly that text.
type FatalError struct {
	Status  int
	Message string
}

func (e *FatalError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("downstream responded %d", e.Status)
	}
	return e.Message
}

// Is makes errors.Is(err, ErrDownstreamFailure) true for any FatalError.
func (e *FatalError) Is(target error) bool { return target == ErrDownstreamFailure }
