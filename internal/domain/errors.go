package domain

import "errors"

var (
	// ErrValidation signals a value object rejected its construction input.
	ErrValidation = errors.New("invalid value")
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates an illegal order status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)
