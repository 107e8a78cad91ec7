package ordering

import "context"

// Store is the capability a positioned table exposes to the manager.
type Store interface {
	// Scope names the table; it prefixes lock keys and log lines.
	Scope() string
	// Begin opens a transaction bound to the table.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a scoped transaction over one positioned table. All queries only see
// non-deleted rows. Rollback after Commit is a no-op returning nil.
type Tx interface {
	// Get returns the item or ErrNotFound when it is missing or deleted.
	Get(ctx context.Context, id int) (Item, error)
	// MaxPosition returns the greatest position in the group; ok is false for an empty group.
	MaxPosition(ctx context.Context, g Group) (max float64, ok bool, err error)
	// Below returns the item with the greatest position strictly less than pos, or nil.
	Below(ctx context.Context, g Group, pos float64, exclude int) (*Item, error)
	// Above returns the item with the smallest position strictly greater than pos, or nil.
	Above(ctx context.Context, g Group, pos float64, exclude int) (*Item, error)
	// List returns every item of the group ordered by position, then id.
	List(ctx context.Context, g Group) ([]Item, error)
	// SetPosition moves one row into g at pos.
	SetPosition(ctx context.Context, id int, g Group, pos float64) error
	// Rerank rewrites every item of g except exclude, ordered by position then id,
	// to RankPosition(baseline, rank) with rank starting at 0.
	Rerank(ctx context.Context, g Group, exclude int, baseline float64) error
	// Delete soft-deletes the row.
	Delete(ctx context.Context, id int) error

	Commit() error
	Rollback() error
}
