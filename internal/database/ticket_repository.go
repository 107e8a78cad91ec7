package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/tablero/internal/models"
)

// TicketRepo handles ticket reads and non-positional writes.
// Positions are only written through TicketStore.
type TicketRepo struct {
	db *sql.DB
}

const ticketColumns = "id, board_id, status_id, title, content, position, start_date, end_date, created_at, updated_at"

func scanTicket(row rowScanner) (*models.Ticket, error) {
	t := &models.Ticket{}
	var start, end sql.NullTime
	if err := row.Scan(
		&t.ID, &t.BoardID, &t.StatusID, &t.Title, &t.Content, &t.Position,
		&start, &end, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.StartDate = nullTimeToPtr(start)
	t.EndDate = nullTimeToPtr(end)
	return t, nil
}

// GetTicket retrieves a live ticket.
func (r *TicketRepo) GetTicket(ctx context.Context, id int) (*models.Ticket, error) {
	t, err := scanTicket(r.db.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id = ? AND deleted = 0", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %d: %w", id, mapError(err))
	}
	return t, nil
}

// ListTicketsByStatus returns the live tickets of a status in position order.
func (r *TicketRepo) ListTicketsByStatus(ctx context.Context, statusID int) ([]*models.Ticket, error) {
	return r.queryTickets(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE status_id = ? AND deleted = 0 ORDER BY position, id",
		statusID)
}

// ListTicketsByBoard returns the live tickets of every live status of a board,
// ordered by status, then position.
func (r *TicketRepo) ListTicketsByBoard(ctx context.Context, boardID int) ([]*models.Ticket, error) {
	return r.queryTickets(ctx, `
		SELECT t.id, t.board_id, t.status_id, t.title, t.content, t.position,
		       t.start_date, t.end_date, t.created_at, t.updated_at
		FROM tickets t
		INNER JOIN statuses s ON s.id = t.status_id
		WHERE t.board_id = ? AND t.deleted = 0 AND s.deleted = 0
		ORDER BY t.status_id, t.position, t.id`, boardID)
}

func (r *TicketRepo) queryTickets(ctx context.Context, query string, args ...any) ([]*models.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", mapError(err))
	}
	defer rows.Close()

	tickets := make([]*models.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// UpdateTicketFields writes the title, content and schedule of t.
func (r *TicketRepo) UpdateTicketFields(ctx context.Context, t *models.Ticket) error {
	return updateTicketFields(ctx, r.db, t)
}

func updateTicketFields(ctx context.Context, db execer, t *models.Ticket) error {
	_, err := db.ExecContext(ctx, `
		UPDATE tickets
		SET title = ?, content = ?, start_date = ?, end_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted = 0`,
		t.Title, t.Content, nullTime(t.StartDate), nullTime(t.EndDate), t.ID)
	if err != nil {
		return fmt.Errorf("failed to update ticket %d: %w", t.ID, mapError(err))
	}
	return nil
}
