package board

import "errors"

// Board-related errors
var (
	// Validation errors
	ErrEmptyTitle     = errors.New("board title cannot be empty")
	ErrTitleTooLong   = errors.New("board title cannot exceed 255 characters")
	ErrInvalidBoardID = errors.New("invalid board ID")
	ErrInvalidUserID  = errors.New("invalid user ID")
	ErrInvalidPage    = errors.New("invalid page: must be >= 1")

	// Business logic errors
	ErrBoardNotFound    = errors.New("board not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// Membership errors
var (
	// ErrInvalidInviteCode indicates the code does not belong to the board
	ErrInvalidInviteCode = errors.New("invalid invite code")

	// ErrAlreadyMember indicates the user already joined the board
	ErrAlreadyMember = errors.New("user is already a member of the board")

	// ErrNotMember indicates the user to kick is not on the board
	ErrNotMember = errors.New("user is not a member of the board")

	// ErrCannotKickOwner indicates the owner tried to kick themselves
	ErrCannotKickOwner = errors.New("the board owner cannot be kicked")

	// ErrMembersRemaining indicates the owner tried to leave a shared board
	ErrMembersRemaining = errors.New("the owner cannot leave while other members remain")

	// ErrInviteCodeExhausted indicates every generated code was already taken
	ErrInviteCodeExhausted = errors.New("could not generate a unique invite code")
)
