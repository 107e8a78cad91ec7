package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/ordering"
	"github.com/thenoetrevino/tablero/internal/services/board"
	"github.com/thenoetrevino/tablero/internal/services/status"
	"github.com/thenoetrevino/tablero/internal/services/ticket"
	"github.com/thenoetrevino/tablero/internal/services/user"
)

// Error codes of the JSON error body.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeInternal        = "internal"
)

// ErrUnknownUser is returned for a well-formed identity that names no user.
var ErrUnknownUser = errors.New("unknown user")

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var statusByError = []struct {
	err    error
	status int
}{
	{user.ErrUserNotFound, http.StatusNotFound},
	{board.ErrBoardNotFound, http.StatusNotFound},
	{status.ErrStatusNotFound, http.StatusNotFound},
	{ticket.ErrTicketNotFound, http.StatusNotFound},

	{board.ErrPermissionDenied, http.StatusForbidden},
	{board.ErrInvalidInviteCode, http.StatusForbidden},

	{user.ErrEmailTaken, http.StatusConflict},
	{board.ErrAlreadyMember, http.StatusConflict},
	{board.ErrMembersRemaining, http.StatusConflict},
	{board.ErrInviteCodeExhausted, http.StatusConflict},
	{ordering.ErrConcurrencyConflict, http.StatusConflict},
	{ordering.ErrPositionExhausted, http.StatusConflict},

	{user.ErrInvalidEmail, http.StatusBadRequest},
	{user.ErrInvalidNickname, http.StatusBadRequest},
	{user.ErrInvalidUserID, http.StatusBadRequest},
	{board.ErrEmptyTitle, http.StatusBadRequest},
	{board.ErrTitleTooLong, http.StatusBadRequest},
	{board.ErrInvalidBoardID, http.StatusBadRequest},
	{board.ErrInvalidUserID, http.StatusBadRequest},
	{board.ErrInvalidPage, http.StatusBadRequest},
	{board.ErrNotMember, http.StatusBadRequest},
	{board.ErrCannotKickOwner, http.StatusBadRequest},
	{status.ErrEmptyTitle, http.StatusBadRequest},
	{status.ErrTitleTooLong, http.StatusBadRequest},
	{status.ErrInvalidStatusID, http.StatusBadRequest},
	{ticket.ErrEmptyTitle, http.StatusBadRequest},
	{ticket.ErrTitleTooLong, http.StatusBadRequest},
	{ticket.ErrInvalidTicketID, http.StatusBadRequest},
	{ticket.ErrInvalidDateRange, http.StatusBadRequest},
	{models.ErrInvalidLane, http.StatusBadRequest},
	{models.ErrInvalidColor, http.StatusBadRequest},
	{ordering.ErrInvalidPosition, http.StatusBadRequest},
}

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func codeFor(httpStatus int) string {
	switch httpStatus {
	case http.StatusBadRequest:
		return CodeInvalidArgument
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	default:
		return CodeInternal
	}
}

// errorHandler replaces echo's default handler so every failure renders as ErrorBody.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		httpStatus := statusFor(err)
		message := err.Error()

		var he *echo.HTTPError
		if errors.As(err, &he) {
			httpStatus = he.Code
			message = fmt.Sprint(he.Message)
		}
		if httpStatus >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err)
			message = http.StatusText(httpStatus)
		}

		body := ErrorBody{Error: ErrorDetail{Code: codeFor(httpStatus), Message: message}}
		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(httpStatus)
		} else {
			writeErr = c.JSON(httpStatus, body)
		}
		if writeErr != nil {
			logger.Debug("failed to write error response", "error", writeErr)
		}
	}
}

func badRequest(format string, args ...any) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

func unauthorized(err error) error {
	return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(err)
}
