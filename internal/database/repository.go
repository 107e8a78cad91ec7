package database

import "database/sql"

// Repository provides a unified entry point to all data operations.
// It composes domain-specific repositories using struct embedding, next to the
// ordering stores that own the position columns.
type Repository struct {
	*UserRepo
	*BoardRepo
	*StatusRepo
	*TicketRepo

	tickets  *TicketStore
	statuses *StatusStore
}

// NewRepository creates a new Repository instance wrapping the given database connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		UserRepo:   &UserRepo{db: db},
		BoardRepo:  &BoardRepo{db: db},
		StatusRepo: &StatusRepo{db: db},
		TicketRepo: &TicketRepo{db: db},
		tickets:    NewTicketStore(db),
		statuses:   NewStatusStore(db),
	}
}

// TicketStore returns the ordering store of the tickets table.
func (r *Repository) TicketStore() *TicketStore {
	return r.tickets
}

// StatusStore returns the ordering store of the statuses table.
func (r *Repository) StatusStore() *StatusStore {
	return r.statuses
}
