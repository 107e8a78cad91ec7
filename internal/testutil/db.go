package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/models"
)

// SetupTestDB creates an in-memory database with the full schema.
// The connection is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.InitDB(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return db
}

// SetupTestRepository is SetupTestDB wrapped in a Repository.
func SetupTestRepository(t *testing.T) (*sql.DB, *database.Repository) {
	t.Helper()
	db := SetupTestDB(t)
	return db, database.NewRepository(db)
}

var userSeq atomic.Int64

// CreateTestUser inserts a user with a unique email and returns it
func CreateTestUser(t *testing.T, repo *database.Repository, nickname string) *models.User {
	t.Helper()
	email := fmt.Sprintf("%s-%d@example.com", nickname, userSeq.Add(1))
	u, err := repo.UserRepo.Create(context.Background(), email, nickname)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}
