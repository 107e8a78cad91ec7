package status

import "errors"

// Status-related errors
var (
	// Validation errors
	ErrEmptyTitle      = errors.New("status title cannot be empty")
	ErrTitleTooLong    = errors.New("status title cannot exceed 255 characters")
	ErrInvalidStatusID = errors.New("invalid status ID")

	// Business logic errors
	ErrStatusNotFound = errors.New("status not found")
)
