package ticket

import "errors"

// Ticket-related errors
var (
	// Validation errors
	ErrEmptyTitle       = errors.New("ticket title cannot be empty")
	ErrTitleTooLong     = errors.New("ticket title cannot exceed 255 characters")
	ErrInvalidTicketID  = errors.New("invalid ticket ID")
	ErrInvalidDateRange = errors.New("invalid schedule: start date must not be after end date")

	// Business logic errors
	ErrTicketNotFound = errors.New("ticket not found")
)
