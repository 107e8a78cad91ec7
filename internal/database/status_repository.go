package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/tablero/internal/models"
)

// StatusRepo handles status reads and non-positional writes.
// Positions are only written through StatusStore.
type StatusRepo struct {
	db *sql.DB
}

const statusColumns = "id, board_id, lane, title, color, position, created_at"

// laneOrder sorts statuses todo, inProgress, complete.
const laneOrder = "CASE lane WHEN 'todo' THEN 0 WHEN 'inProgress' THEN 1 ELSE 2 END"

func scanStatus(row rowScanner) (*models.Status, error) {
	s := &models.Status{}
	var lane, color string
	if err := row.Scan(&s.ID, &s.BoardID, &lane, &s.Title, &color, &s.Position, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Lane = models.Lane(lane)
	s.Color = models.Color(color)
	return s, nil
}

// GetStatus retrieves a live status.
func (r *StatusRepo) GetStatus(ctx context.Context, id int) (*models.Status, error) {
	s, err := scanStatus(r.db.QueryRowContext(ctx,
		"SELECT "+statusColumns+" FROM statuses WHERE id = ? AND deleted = 0", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get status %d: %w", id, mapError(err))
	}
	return s, nil
}

// ListStatuses returns the live statuses of a board ordered by lane, then position.
func (r *StatusRepo) ListStatuses(ctx context.Context, boardID int) ([]*models.Status, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+statusColumns+" FROM statuses WHERE board_id = ? AND deleted = 0 ORDER BY "+laneOrder+", position, id",
		boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", mapError(err))
	}
	defer rows.Close()

	statuses := make([]*models.Status, 0)
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// UpdateStatusFields writes the title and color of s.
func (r *StatusRepo) UpdateStatusFields(ctx context.Context, s *models.Status) error {
	return updateStatusFields(ctx, r.db, s)
}

func updateStatusFields(ctx context.Context, db execer, s *models.Status) error {
	_, err := db.ExecContext(ctx,
		"UPDATE statuses SET title = ?, color = ? WHERE id = ? AND deleted = 0",
		s.Title, string(s.Color), s.ID)
	if err != nil {
		return fmt.Errorf("failed to update status %d: %w", s.ID, mapError(err))
	}
	return nil
}
