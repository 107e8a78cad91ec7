package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/tablero/internal/models"
)

// BoardRepo handles boards, their memberships and invite codes.
type BoardRepo struct {
	db *sql.DB
}

const boardColumns = "id, owner_id, title, icon, invite_code, created_at, updated_at"

func scanBoard(row rowScanner) (*models.Board, error) {
	b := &models.Board{}
	var invite sql.NullString
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Title, &b.Icon, &invite, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.InviteCode = invite.String
	return b, nil
}

// GetBoard retrieves a live board.
func (r *BoardRepo) GetBoard(ctx context.Context, id int) (*models.Board, error) {
	b, err := scanBoard(r.db.QueryRowContext(ctx,
		"SELECT "+boardColumns+" FROM boards WHERE id = ? AND deleted = 0", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get board %d: %w", id, mapError(err))
	}
	return b, nil
}

// GetBoardByInviteCode retrieves the live board currently using code.
func (r *BoardRepo) GetBoardByInviteCode(ctx context.Context, code string) (*models.Board, error) {
	b, err := scanBoard(r.db.QueryRowContext(ctx,
		"SELECT "+boardColumns+" FROM boards WHERE invite_code = ? AND deleted = 0", code))
	if err != nil {
		return nil, fmt.Errorf("failed to get board by invite code: %w", mapError(err))
	}
	return b, nil
}

// ListBoardsForUser returns one page of the live boards userID belongs to, newest
// first, together with the total number of such boards.
func (r *BoardRepo) ListBoardsForUser(ctx context.Context, userID, limit, offset int) ([]*models.Board, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM boards b
		INNER JOIN board_members m ON m.board_id = b.id
		WHERE m.user_id = ? AND b.deleted = 0`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count boards: %w", mapError(err))
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.owner_id, b.title, b.icon, b.invite_code, b.created_at, b.updated_at
		FROM boards b
		INNER JOIN board_members m ON m.board_id = b.id
		WHERE m.user_id = ? AND b.deleted = 0
		ORDER BY b.id DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list boards: %w", mapError(err))
	}
	defer rows.Close()

	boards := make([]*models.Board, 0)
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return boards, total, nil
}

// UpdateBoard writes the title and icon of b.
func (r *BoardRepo) UpdateBoard(ctx context.Context, b *models.Board) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE boards SET title = ?, icon = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted = 0",
		b.Title, b.Icon, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update board %d: %w", b.ID, mapError(err))
	}
	return nil
}

// SoftDeleteBoard marks the board deleted and drops every membership.
func (r *BoardRepo) SoftDeleteBoard(ctx context.Context, id int) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE boards SET deleted = 1, invite_code = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete board %d: %w", id, mapError(err))
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM board_members WHERE board_id = ?", id); err != nil {
			return fmt.Errorf("failed to drop members of board %d: %w", id, mapError(err))
		}
		return nil
	})
}

// SetInviteCode stores code for the board; an empty code clears it. A code held by
// another board returns ErrDuplicate.
func (r *BoardRepo) SetInviteCode(ctx context.Context, id int, code string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE boards SET invite_code = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		nullString(code), id)
	if err != nil {
		return fmt.Errorf("failed to set invite code: %w", mapError(err))
	}
	return nil
}

// AddMember adds userID to the board. An existing membership returns ErrDuplicate.
func (r *BoardRepo) AddMember(ctx context.Context, boardID, userID int) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO board_members (board_id, user_id) VALUES (?, ?)", boardID, userID)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", mapError(err))
	}
	return nil
}

// RemoveMember drops userID from the board. Removing a non-member is not an error.
func (r *BoardRepo) RemoveMember(ctx context.Context, boardID, userID int) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM board_members WHERE board_id = ? AND user_id = ?", boardID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", mapError(err))
	}
	return nil
}

// IsMember reports whether userID belongs to the board.
func (r *BoardRepo) IsMember(ctx context.Context, boardID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM board_members WHERE board_id = ? AND user_id = ?)",
		boardID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", mapError(err))
	}
	return exists, nil
}

// MemberIDs lists the users of a board in join order.
func (r *BoardRepo) MemberIDs(ctx context.Context, boardID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM board_members WHERE board_id = ? ORDER BY joined_at, user_id", boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", mapError(err))
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
