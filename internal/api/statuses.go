package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/thenoetrevino/tablero/internal/services/status"
)

type createStatusRequest struct {
	Title string `json:"title"`
	Lane  string `json:"lane"`
	Color string `json:"color"`
}

type updateStatusRequest struct {
	Title    *string  `json:"title"`
	Color    *string  `json:"color"`
	Lane     *string  `json:"lane"`
	Position *float64 `json:"position"`
}

func listStatuses(statuses status.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		list, err := statuses.ListStatuses(c.Request().Context(), boardID, userID(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, list)
	}
}

func createStatus(statuses status.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		var req createStatusRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		st, err := statuses.CreateStatus(c.Request().Context(), status.CreateStatusRequest{
			BoardID: boardID,
			UserID:  userID(c),
			Title:   req.Title,
			Lane:    req.Lane,
			Color:   req.Color,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, st)
	}
}

func updateStatus(statuses status.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		statusID, err := pathID(c, "statusID")
		if err != nil {
			return err
		}
		var req updateStatusRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		res, err := statuses.UpdateStatus(c.Request().Context(), status.UpdateStatusRequest{
			BoardID:  boardID,
			StatusID: statusID,
			UserID:   userID(c),
			Title:    req.Title,
			Color:    req.Color,
			Lane:     req.Lane,
			Position: req.Position,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, res)
	}
}

func deleteStatus(statuses status.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := pathID(c, "boardID")
		if err != nil {
			return err
		}
		statusID, err := pathID(c, "statusID")
		if err != nil {
			return err
		}
		if err := statuses.DeleteStatus(c.Request().Context(), boardID, statusID, userID(c)); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}
