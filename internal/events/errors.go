package events

import (
	"errors"
	"net/http"
	"syscall"
)

// ErrorCode represents connection failure types.
type ErrorCode int

const (
	ErrServerUnreachable ErrorCode = iota
	ErrUnauthorized
	ErrForbidden
	ErrBoardNotFound
	ErrHandshakeFailed
)

// ConnectError represents a structured connection error with context.
type ConnectError struct {
	Code    ErrorCode
	Message string
	Hint    string
	Err     error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	if e.Hint != "" {
		return e.Message + ". " + e.Hint
	}
	return e.Message
}

// Unwrap returns the underlying dial error.
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Retryable reports whether dialing again may succeed without user action.
func (e *ConnectError) Retryable() bool {
	return e.Code == ErrServerUnreachable || e.Code == ErrHandshakeFailed
}

// ClassifyConnectError maps dial failures to structured ConnectError types.
// resp is the handshake response, if the server answered.
func ClassifyConnectError(err error, resp *http.Response) *ConnectError {
	if err == nil {
		return nil
	}

	if resp != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return &ConnectError{
				Code:    ErrUnauthorized,
				Message: "Not authenticated",
				Hint:    "Pass a valid token with --token or TABLERO_TOKEN",
				Err:     err,
			}
		case http.StatusForbidden:
			return &ConnectError{
				Code:    ErrForbidden,
				Message: "Not a member of this board",
				Hint:    "Join the board with an invite code first",
				Err:     err,
			}
		case http.StatusNotFound:
			return &ConnectError{
				Code:    ErrBoardNotFound,
				Message: "Board not found",
				Err:     err,
			}
		}
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ECONNREFUSED {
		return &ConnectError{
			Code:    ErrServerUnreachable,
			Message: "Connection refused",
			Hint:    "Start the server: tablero serve",
			Err:     err,
		}
	}

	if resp != nil {
		return &ConnectError{
			Code:    ErrHandshakeFailed,
			Message: "Websocket handshake failed: " + resp.Status,
			Err:     err,
		}
	}

	return &ConnectError{
		Code:    ErrServerUnreachable,
		Message: "Server unreachable",
		Hint:    "Check the server address and that tablero serve is running",
		Err:     err,
	}
}
