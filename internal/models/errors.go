package models

import "errors"

// Validation errors for the closed enumerations
var (
	// ErrInvalidLane indicates a lane name outside todo, inProgress and complete
	ErrInvalidLane = errors.New("invalid lane")

	// ErrInvalidColor indicates a color outside the accepted palette
	ErrInvalidColor = errors.New("invalid color")
)
