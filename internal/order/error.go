package order

import (
	"errors"
	"fmt"
)

const PgUniqueViolation = "23505"

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrValidation          = errors.New("validation failed")
	ErrOrderNumberConflict = errors.New("order number already exists")

	ErrFailedCreateOrder = errors.New("failed to create order")
	ErrFailedGetOrder    = errors.New("failed to get order")
	ErrFailedUpdateOrder = errors.New("failed to update order")
)

// ValidationError names the first input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
