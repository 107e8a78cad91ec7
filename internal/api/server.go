package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/thenoetrevino/tablero/internal/hub"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/services/board"
	"github.com/thenoetrevino/tablero/internal/services/status"
	"github.com/thenoetrevino/tablero/internal/services/ticket"
	"github.com/thenoetrevino/tablero/internal/services/user"
)

// contextUserID is the echo context key holding the authenticated user id.
const contextUserID = "userID"

// Services are the domain services behind the routes.
type Services struct {
	Users    user.Service
	Boards   board.Service
	Statuses status.Service
	Tickets  ticket.Service
}

// Subscriber attaches websocket clients to a board.
type Subscriber interface {
	ServeBoard(w http.ResponseWriter, r *http.Request, boardID, userID int) error
	Metrics() hub.MetricsSnapshot
}

// New builds the echo instance serving the API.
func New(svc Services, auth *Auth, subs Subscriber, logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(logger))

	Register(e, svc, auth, subs, logger)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc Services, auth *Auth, subs Subscriber, logger *slog.Logger) {
	e.GET("/healthz", healthz())
	e.GET("/metrics", metrics(subs))
	e.POST("/api/users", registerUser(svc.Users))

	g := e.Group("/api", authenticate(auth, svc.Users))
	g.GET("/users/me", currentUser(svc.Users))
	g.PATCH("/users/me", updateCurrentUser(svc.Users))
	g.DELETE("/users/me", deleteCurrentUser(svc.Users))

	g.POST("/boards", createBoard(svc.Boards))
	g.GET("/boards", listBoards(svc.Boards))
	g.GET("/boards/:boardID", getBoard(svc.Boards))
	g.PATCH("/boards/:boardID", updateBoard(svc.Boards))
	g.DELETE("/boards/:boardID", deleteBoard(svc.Boards))
	g.POST("/boards/:boardID/invite", invite(svc.Boards))
	g.DELETE("/boards/:boardID/invite", deleteInvite(svc.Boards))
	g.POST("/boards/:boardID/join", join(svc.Boards))
	g.POST("/boards/:boardID/leave", leave(svc.Boards))
	g.DELETE("/boards/:boardID/members/:userID", kick(svc.Boards))
	g.GET("/boards/:boardID/ws", watchBoard(svc.Boards, subs, logger))

	g.GET("/boards/:boardID/statuses", listStatuses(svc.Statuses))
	g.POST("/boards/:boardID/statuses", createStatus(svc.Statuses))
	g.PATCH("/boards/:boardID/statuses/:statusID", updateStatus(svc.Statuses))
	g.DELETE("/boards/:boardID/statuses/:statusID", deleteStatus(svc.Statuses))

	g.GET("/boards/:boardID/statuses/:statusID/tickets", listTickets(svc.Tickets))
	g.POST("/boards/:boardID/statuses/:statusID/tickets", createTicket(svc.Tickets))
	g.GET("/boards/:boardID/statuses/:statusID/tickets/:ticketID", getTicket(svc.Tickets))
	g.PATCH("/boards/:boardID/statuses/:statusID/tickets/:ticketID", updateTicket(svc.Tickets))
	g.DELETE("/boards/:boardID/statuses/:statusID/tickets/:ticketID", deleteTicket(svc.Tickets))
}

// UserLookup confirms an authenticated id names a registered user.
type UserLookup interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// authenticate resolves the caller and stores the id on the context.
func authenticate(auth *Auth, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := auth.UserIDFromHeader(c.Request().Header)
			if err != nil {
				return unauthorized(err)
			}
			if _, err := users.GetUser(c.Request().Context(), userID); err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					return unauthorized(ErrUnknownUser)
				}
				return err
			}
			c.Set(contextUserID, userID)
			return next(c)
		}
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.Debug("request", attrs...)
			return nil
		},
	})
}

func userID(c echo.Context) int {
	id, _ := c.Get(contextUserID).(int)
	return id
}

// pathID reads a positive integer path parameter.
func pathID(c echo.Context, name string) (int, error) {
	raw := c.Param(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

// bind decodes the JSON body into v.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return badRequest("invalid request body: %v", he.Message)
		}
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func metrics(subs Subscriber) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, subs.Metrics())
	}
}
