package cli

import (
	"errors"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/ordering"
	"github.com/thenoetrevino/tablero/internal/services/board"
	"github.com/thenoetrevino/tablero/internal/services/status"
	"github.com/thenoetrevino/tablero/internal/services/ticket"
	"github.com/thenoetrevino/tablero/internal/services/user"
)

// Exit codes for CLI commands.
// These codes follow Unix conventions and provide consistent error reporting
// across all CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitError indicates a general error occurred.
	// Use for: Database errors, network errors, unexpected failures.
	ExitError = 1

	// ExitUsage indicates incorrect command usage.
	// Use for: Missing required flags, malformed arguments.
	ExitUsage = 2

	// ExitNotFound indicates a requested resource was not found.
	// Use for: Board, status, ticket or user not found.
	ExitNotFound = 3

	// ExitValidation indicates a validation error.
	// Use for: Invalid lane, color, title, position or date range.
	ExitValidation = 5

	// ExitPermission indicates the acting user may not perform the command.
	ExitPermission = 6

	// ExitConflict indicates a concurrent change or a duplicate.
	ExitConflict = 7
)

// usageError marks errors caused by how the command was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// UsageError wraps err so ExitCodeFor reports ExitUsage.
func UsageError(err error) error {
	return usageError{err: err}
}

// reportedError marks an error the command already printed.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported marks err as already shown to the user. A nil err stays nil.
func Reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// IsReported reports whether err went through Reported.
func IsReported(err error) bool {
	var re reportedError
	return errors.As(err, &re)
}

var exitCodes = []struct {
	code int
	name string
	errs []error
}{
	{ExitNotFound, "NOT_FOUND", []error{
		user.ErrUserNotFound, board.ErrBoardNotFound, status.ErrStatusNotFound, ticket.ErrTicketNotFound,
	}},
	{ExitPermission, "PERMISSION_DENIED", []error{
		board.ErrPermissionDenied, board.ErrInvalidInviteCode,
	}},
	{ExitConflict, "CONFLICT", []error{
		user.ErrEmailTaken, board.ErrAlreadyMember, board.ErrMembersRemaining,
		ordering.ErrConcurrencyConflict, ordering.ErrPositionExhausted,
	}},
	{ExitValidation, "VALIDATION_ERROR", []error{
		models.ErrInvalidLane, models.ErrInvalidColor, ordering.ErrInvalidPosition,
		user.ErrInvalidEmail, user.ErrInvalidNickname,
		board.ErrEmptyTitle, board.ErrTitleTooLong,
		status.ErrEmptyTitle, status.ErrTitleTooLong,
		ticket.ErrEmptyTitle, ticket.ErrTitleTooLong, ticket.ErrInvalidDateRange,
	}},
}

// ExitCodeFor maps a command error to a process exit code.
func ExitCodeFor(err error) int {
	code, _ := classify(err)
	return code
}

// ErrorCode is the machine-readable name printed in JSON error output.
func ErrorCode(err error) string {
	_, name := classify(err)
	return name
}

func classify(err error) (int, string) {
	if err == nil {
		return ExitSuccess, ""
	}
	var ue usageError
	if errors.As(err, &ue) {
		return ExitUsage, "USAGE_ERROR"
	}
	for _, c := range exitCodes {
		for _, target := range c.errs {
			if errors.Is(err, target) {
				return c.code, c.name
			}
		}
	}
	return ExitError, "ERROR"
}
