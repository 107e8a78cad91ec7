package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/thenoetrevino/tablero/internal/services/board"
	"github.com/thenoetrevino/tablero/internal/services/user"
)

type registerUserRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

func registerUser(users user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerUserRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		u, err := users.Register(c.Request().Context(), user.RegisterRequest{
			Email:    req.Email,
			Nickname: req.Nickname,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, u)
	}
}

func currentUser(users user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := users.GetUser(c.Request().Context(), userID(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, u)
	}
}

type updateUserRequest struct {
	Email    *string `json:"email"`
	Nickname *string `json:"nickname"`
}

func updateCurrentUser(users user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req updateUserRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		u, err := users.UpdateUser(c.Request().Context(), user.UpdateUserRequest{
			UserID:   userID(c),
			Email:    req.Email,
			Nickname: req.Nickname,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, u)
	}
}

func deleteCurrentUser(users user.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := users.DeleteUser(c.Request().Context(), userID(c)); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type boardRequest struct {
	Title *string `json:"title"`
	Icon  *string `json:"icon"`
}

func createBoard(boards board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req boardRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		in := board.CreateBoardRequest{UserID: userID(c)}
		if req.Title != nil {
			in.Title = *req.Title
		}
		if req.Icon != nil {
			in.Icon = *req.Icon
		}
		detail, err := boards.CreateBoard(c.Request().Context(), in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, detail)
	}
}

func listBoards(boards board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		page := 1
		if raw := c.QueryParam("page"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return badRequest("invalid page %q", raw)
			}
			page = n
		}
		res, err := boards.ListBoards(c.Request().Context(), userID(c), page)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, res)
	}
}

func getBoard(boards board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		detail, err := boards.GetBoard(c.Request().Context(), boardID, userID(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, detail)
	}
}

func updateBoard(boards board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		var req boardRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		b, err := boards.UpdateBoard(c.Request().Context(), board.UpdateBoardRequest{
			BoardID: boardID,
			UserID:  userID(c),
			Title:   req.Title,
			Icon:    req.Icon,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, b)
	}
}

func deleteBoard(boards board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		if err := boards.DeleteBoard(c.Request().Context(), boardID, userID(c)); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type inviteResponse struct {
	InviteCode string `json:"inviteCode"`
}

func invite(boards board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		regenerate := false
		if raw := c.QueryParam("regenerate"); raw != "" {
			if regenerate, err = strconv.ParseBool(raw); err != nil {
				return badRequest("invalid regenerate %q", raw)
			}
		}
		code, err := boards.Invite(c.Request().Context(), boardID, userID(c), regenerate)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, inviteResponse{InviteCode: code})
	}
}

func deleteInvite(boards board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		if err := boards.DeleteInviteCode(c.Request().Context(), boardID, userID(c)); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type joinRequest struct {
	InviteCode string `json:"inviteCode"`
}

func join(boards board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		var req joinRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		b, err := boards.Join(c.Request().Context(), boardID, userID(c), req.InviteCode)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, b)
	}
}

func leave(boards board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		if err := boards.Leave(c.Request().Context(), boardID, userID(c)); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func kick(boards board.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		member, err := pathID(c, "userID")
		if err != nil {
			return err
		}
		if err := boards.Kick(c.Request().Context(), boardID, userID(c), member); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// watchBoard upgrades to a websocket subscribed to the board's events.
func watchBoard(boards board.Service, subs Subscriber, logger *slog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		uid := userID(c)
		if _, err := boards.ValidateMember(c.Request().Context(), boardID, uid); err != nil {
			return err
		}
		// ServeBoard answers failed upgrades itself.
		if err := subs.ServeBoard(c.Response(), c.Request(), boardID, uid); err != nil {
			logger.Debug("websocket subscription failed", "board_id", boardID, "user_id", uid, "error", err)
		}
		return nil
	}
}
