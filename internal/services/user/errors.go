package user

import "errors"

// User-related errors
var (
	// Validation errors
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidNickname = errors.New("nickname must be between 1 and 30 characters")
	ErrInvalidUserID   = errors.New("invalid user ID")

	// Business logic errors
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email is already registered")
)
