package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/thenoetrevino/tablero/internal/services/ticket"
)

type createTicketRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateTicketRequest struct {
	Title     *string    `json:"title"`
	Content   *string    `json:"content"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	StatusID  *int       `json:"statusId"`
	Position  *float64   `json:"position"`
}

// ticketRef reads the board, status and ticket path parameters. The ticket id
// is skipped when withTicket is false.
func ticketRef(c echo.Context, withTicket bool) (ticket.Ref, error) {
	ref := ticket.Ref{UserID: userID(c)}
	var err error
	if ref.BoardID, err = pathID(c, "boardID"); err != nil {
		return ref, err
	}
	if ref.StatusID, err = pathID(c, "statusID"); err != nil {
		return ref, err
	}
	if withTicket {
		if ref.TicketID, err = pathID(c, "ticketID"); err != nil {
			return ref, err
		}
	}
	return ref, nil
}

func listTickets(tickets ticket.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		ref, err := ticketRef(c, false)
		if err != nil {
			return err
		}
		list, err := tickets.ListTickets(c.Request().Context(), ref.BoardID, ref.StatusID, ref.UserID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, list)
	}
}

func createTicket(tickets ticket.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		ref, err := ticketRef(c, false)
		if err != nil {
			return err
		}
		var req createTicketRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		t, err := tickets.CreateTicket(c.Request().Context(), ticket.CreateTicketRequest{
			BoardID:  ref.BoardID,
			StatusID: ref.StatusID,
			UserID:   ref.UserID,
			Title:    req.Title,
			Content:  req.Content,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, t)
	}
}

func getTicket(tickets ticket.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		ref, err := ticketRef(c, true)
		if err != nil {
			return err
		}
		t, err := tickets.GetTicket(c.Request().Context(), ref)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, t)
	}
}

func updateTicket(tickets ticket.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		ref, err := ticketRef(c, true)
		if err != nil {
			return err
		}
		var req updateTicketRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		res, err := tickets.UpdateTicket(c.Request().Context(), ticket.UpdateTicketRequest{
			Ref:            ref,
			Title:          req.Title,
			Content:        req.Content,
			StartDate:      req.StartDate,
			EndDate:        req.EndDate,
			TargetStatusID: req.StatusID,
			Position:       req.Position,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, res)
	}
}

func deleteTicket(tickets ticket.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		ref, err := ticketRef(c, true)
		if err != nil {
			return err
		}
		if err := tickets.DeleteTicket(c.Request().Context(), ref); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}
