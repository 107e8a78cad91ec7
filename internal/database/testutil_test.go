package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/ordering"
)

// ============================================================================
// DATABASE SETUP HELPERS
// ============================================================================

// setupTestDB creates an in-memory database and runs migrations
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// createTestUser inserts a user with a unique email
func createTestUser(t *testing.T, repo *Repository, email string) *models.User {
	t.Helper()
	u, err := repo.UserRepo.Create(context.Background(), email, "nick")
	require.NoError(t, err)
	return u
}

// createTestBoard inserts a board owned by ownerID without statuses
func createTestBoard(t *testing.T, repo *Repository, ownerID int, title string) *models.Board {
	t.Helper()
	ctx := context.Background()
	tx, err := repo.StatusStore().BeginStatusTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	b := &models.Board{OwnerID: ownerID, Title: title}
	require.NoError(t, tx.CreateBoard(ctx, b))
	require.NoError(t, tx.Commit())
	return b
}

// createTestStatus appends a status to its lane through the manager
func createTestStatus(t *testing.T, repo *Repository, m *ordering.Manager, boardID int, lane models.Lane, title string) *models.Status {
	t.Helper()
	ctx := context.Background()
	g := StatusGroup(boardID, lane)

	guard, err := m.Acquire(ctx, repo.StatusStore().Scope(), g)
	require.NoError(t, err)
	defer guard.Release()

	tx, err := repo.StatusStore().BeginStatusTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	pos, err := m.Append(ctx, tx, g)
	require.NoError(t, err)
	s := &models.Status{BoardID: boardID, Lane: lane, Title: title, Color: models.ColorBlack, Position: pos}
	require.NoError(t, tx.Create(ctx, s))
	require.NoError(t, tx.Commit())
	return s
}

// createTestTicket appends a ticket to its status through the manager
func createTestTicket(t *testing.T, repo *Repository, m *ordering.Manager, boardID, statusID int, title string) *models.Ticket {
	t.Helper()
	ctx := context.Background()
	g := TicketGroup(statusID)

	guard, err := m.Acquire(ctx, repo.TicketStore().Scope(), g)
	require.NoError(t, err)
	defer guard.Release()

	tx, err := repo.TicketStore().BeginTicketTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	pos, err := m.Append(ctx, tx, g)
	require.NoError(t, err)
	tk := &models.Ticket{BoardID: boardID, StatusID: statusID, Title: title, Position: pos}
	require.NoError(t, tx.Create(ctx, tk))
	require.NoError(t, tx.Commit())
	return tk
}

// ticketOrder returns the ids of the live tickets of a status in position order
func ticketOrder(t *testing.T, repo *Repository, statusID int) []int {
	t.Helper()
	tickets, err := repo.ListTicketsByStatus(context.Background(), statusID)
	require.NoError(t, err)
	ids := make([]int, len(tickets))
	for i, tk := range tickets {
		ids[i] = tk.ID
	}
	return ids
}
