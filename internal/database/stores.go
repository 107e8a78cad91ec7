package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/ordering"
)

// TicketStore exposes the tickets table to the ordering manager.
type TicketStore struct {
	db *sql.DB
}

// NewTicketStore wraps db.
func NewTicketStore(db *sql.DB) *TicketStore {
	return &TicketStore{db: db}
}

// Scope implements ordering.Store.
func (s *TicketStore) Scope() string { return ticketPositions.name }

// Begin implements ordering.Store.
func (s *TicketStore) Begin(ctx context.Context) (ordering.Tx, error) {
	return s.BeginTicketTx(ctx)
}

// BeginTicketTx opens a transaction that can also insert tickets.
func (s *TicketStore) BeginTicketTx(ctx context.Context) (*TicketTx, error) {
	p, err := beginPositionTx(ctx, s.db, ticketPositions)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &TicketTx{positionTx: p}, nil
}

// TicketGroup is the ordering group of the tickets in a status.
func TicketGroup(statusID int) ordering.Group {
	return ordering.Group{ID: statusID}
}

// TicketTx is an ordering transaction over tickets.
type TicketTx struct {
	*positionTx
}

// Create inserts t at t.Position and reloads it to fill in its id and timestamps.
func (tx *TicketTx) Create(ctx context.Context, t *models.Ticket) error {
	res, err := tx.tx.ExecContext(ctx, `
		INSERT INTO tickets (board_id, status_id, title, content, position, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.BoardID, t.StatusID, t.Title, t.Content, t.Position, nullTime(t.StartDate), nullTime(t.EndDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get ticket ID: %w", err)
	}

	created, err := scanTicket(tx.tx.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id = ?", id))
	if err != nil {
		return fmt.Errorf("failed to reload ticket %d: %w", id, mapError(err))
	}
	*t = *created
	return nil
}

// UpdateFields writes the title, content and schedule of t.
func (tx *TicketTx) UpdateFields(ctx context.Context, t *models.Ticket) error {
	return updateTicketFields(ctx, tx.tx, t)
}

// CheckStatus returns ErrNotFound unless statusID is a live status of boardID.
// Tickets moved in the same transaction cannot land in a status deleted
// concurrently.
func (tx *TicketTx) CheckStatus(ctx context.Context, boardID, statusID int) error {
	var id int
	err := tx.tx.QueryRowContext(ctx,
		"SELECT id FROM statuses WHERE id = ? AND board_id = ? AND deleted = 0",
		statusID, boardID).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to check status %d: %w", statusID, mapError(err))
	}
	return nil
}

// StatusStore exposes the statuses table to the ordering manager.
type StatusStore struct {
	db *sql.DB
}

// NewStatusStore wraps db.
func NewStatusStore(db *sql.DB) *StatusStore {
	return &StatusStore{db: db}
}

// Scope implements ordering.Store.
func (s *StatusStore) Scope() string { return statusPositions.name }

// Begin implements ordering.Store.
func (s *StatusStore) Begin(ctx context.Context) (ordering.Tx, error) {
	return s.BeginStatusTx(ctx)
}

// BeginStatusTx opens a transaction that can also insert statuses and boards.
func (s *StatusStore) BeginStatusTx(ctx context.Context) (*StatusTx, error) {
	p, err := beginPositionTx(ctx, s.db, statusPositions)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &StatusTx{positionTx: p}, nil
}

// StatusGroup is the ordering group of a lane of a board.
func StatusGroup(boardID int, lane models.Lane) ordering.Group {
	return ordering.Group{ID: boardID, Lane: string(lane)}
}

// StatusTx is an ordering transaction over statuses.
type StatusTx struct {
	*positionTx
}

// Create inserts s at s.Position and reloads it to fill in its id.
func (tx *StatusTx) Create(ctx context.Context, s *models.Status) error {
	res, err := tx.tx.ExecContext(ctx, `
		INSERT INTO statuses (board_id, lane, title, color, position)
		VALUES (?, ?, ?, ?, ?)`,
		s.BoardID, string(s.Lane), s.Title, string(s.Color), s.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert status: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get status ID: %w", err)
	}

	created, err := scanStatus(tx.tx.QueryRowContext(ctx,
		"SELECT "+statusColumns+" FROM statuses WHERE id = ?", id))
	if err != nil {
		return fmt.Errorf("failed to reload status %d: %w", id, mapError(err))
	}
	*s = *created
	return nil
}

// UpdateFields writes the title and color of s.
func (tx *StatusTx) UpdateFields(ctx context.Context, s *models.Status) error {
	return updateStatusFields(ctx, tx.tx, s)
}

// CreateBoard inserts b with its owner as the first member, so the board and
// its seeded statuses commit together.
func (tx *StatusTx) CreateBoard(ctx context.Context, b *models.Board) error {
	res, err := tx.tx.ExecContext(ctx,
		"INSERT INTO boards (owner_id, title, icon) VALUES (?, ?, ?)",
		b.OwnerID, b.Title, b.Icon)
	if err != nil {
		return fmt.Errorf("failed to insert board: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get board ID: %w", err)
	}

	_, err = tx.tx.ExecContext(ctx,
		"INSERT INTO board_members (board_id, user_id) VALUES (?, ?)", id, b.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to add owner to board: %w", mapError(err))
	}

	created, err := scanBoard(tx.tx.QueryRowContext(ctx,
		"SELECT "+boardColumns+" FROM boards WHERE id = ?", id))
	if err != nil {
		return fmt.Errorf("failed to reload board %d: %w", id, mapError(err))
	}
	*b = *created
	return nil
}
