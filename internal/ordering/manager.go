package ordering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// Manager assigns and repairs positions. It is safe for concurrent use; moves in
// the same group are serialized through the Locker, moves in different groups run
// independently.
type Manager struct {
	cfg    Config
	locker Locker
	logger *slog.Logger
	scale  float64
}

// NewManager creates a Manager. A nil locker falls back to an in-process MutexLocker.
func NewManager(cfg Config, locker Locker, logger *slog.Logger) *Manager {
	cfg = cfg.withDefaults()
	if locker == nil {
		locker = NewMutexLocker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		locker: locker,
		logger: logger,
		scale:  math.Pow10(cfg.Precision),
	}
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Guard is the exclusive right to reposition items of one group.
type Guard struct {
	once   sync.Once
	unlock func()
}

// Release gives the group back. Calling it more than once is harmless.
func (g *Guard) Release() {
	g.once.Do(g.unlock)
}

// Acquire locks the group for the scope. It must be taken before the transaction
// that reads and writes positions is opened, and released after it ends.
func (m *Manager) Acquire(ctx context.Context, scope string, g Group) (*Guard, error) {
	unlock, err := m.locker.Lock(ctx, lockKey(scope, g))
	if err != nil {
		return nil, fmt.Errorf("lock %s group %s: %w", scope, g, err)
	}
	return &Guard{unlock: unlock}, nil
}

func lockKey(scope string, g Group) string {
	return fmt.Sprintf("%s:%d:%s", scope, g.ID, g.Lane)
}

// Append returns the position for a new item at the tail of g. It reads within tx
// and modifies nothing; the caller inserts the row in the same transaction while
// holding the group's Guard.
func (m *Manager) Append(ctx context.Context, tx Tx, g Group) (float64, error) {
	max, ok, err := tx.MaxPosition(ctx, g)
	if err != nil {
		return 0, fmt.Errorf("failed to read max position: %w", err)
	}
	if !ok {
		return m.cfg.Baseline, nil
	}
	next := max * 2
	if math.IsInf(next, 0) || next <= 0 {
		return 0, ErrPositionExhausted
	}
	return next, nil
}

// Move places an item in req.Group at req.Position, renormalizing the group when
// the requested position cannot be told apart from a neighbor.
func (m *Manager) Move(ctx context.Context, store Store, req MoveRequest) (*MoveResult, error) {
	if err := ValidatePosition(req.Position); err != nil {
		return nil, err
	}

	guard, err := m.Acquire(ctx, store.Scope(), req.Group)
	if err != nil {
		return nil, err
	}
	defer guard.Release()

	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		result, err := m.moveOnce(ctx, store, req)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
		m.logger.Warn("position move conflicted",
			"scope", store.Scope(),
			"group", req.Group.String(),
			"item_id", req.ItemID,
			"attempt", attempt,
			"error", err)
	}
	return nil, lastErr
}

func (m *Manager) moveOnce(ctx context.Context, store Store, req MoveRequest) (*MoveResult, error) {
	tx, err := store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer m.rollback(store, tx)

	item, err := tx.Get(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if req.Apply != nil {
		if err := req.Apply(ctx, tx); err != nil {
			return nil, err
		}
	}

	lower, upper, collided, err := m.neighbors(ctx, tx, req, item.ID)
	if err != nil {
		return nil, err
	}

	var result *MoveResult
	if collided {
		result, err = m.renormalize(ctx, tx, store.Scope(), item, req.Group, lower, upper)
		if err != nil {
			return nil, err
		}
	} else {
		if err := tx.SetPosition(ctx, item.ID, req.Group, req.Position); err != nil {
			return nil, fmt.Errorf("failed to write position: %w", err)
		}
		item.Group = req.Group
		item.Position = req.Position
		result = &MoveResult{Item: item}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

// neighbors finds the items enclosing req.Position and reports whether the
// requested position collides with them at the configured precision. Only a
// position enclosed on both sides can collide; at either edge of the group the
// request is written as is. A sibling sitting exactly on the requested position
// always collides and counts as the lower bound.
func (m *Manager) neighbors(ctx context.Context, tx Tx, req MoveRequest, self int) (lower, upper *Item, collided bool, err error) {
	lower, err = tx.Below(ctx, req.Group, req.Position, self)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to find lower neighbor: %w", err)
	}
	upper, err = tx.Above(ctx, req.Group, req.Position, self)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to find upper neighbor: %w", err)
	}

	tie, err := tx.Above(ctx, req.Group, math.Nextafter(req.Position, 0), self)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to check position tie: %w", err)
	}
	if tie != nil && tie.Position == req.Position {
		return tie, upper, true, nil
	}

	if lower == nil || upper == nil {
		return lower, upper, false, nil
	}
	t := m.truncate(req.Position)
	collided = m.truncate(lower.Position) == t || m.truncate(upper.Position) == t
	return lower, upper, collided, nil
}

func (m *Manager) truncate(v float64) float64 {
	return math.Trunc(v * m.scale)
}

func (m *Manager) renormalize(ctx context.Context, tx Tx, scope string, item Item, g Group, lower, upper *Item) (*MoveResult, error) {
	if err := tx.Rerank(ctx, g, item.ID, m.cfg.Baseline); err != nil {
		return nil, fmt.Errorf("failed to renumber group: %w", err)
	}

	newLower, err := m.refetch(ctx, tx, lower)
	if err != nil {
		return nil, err
	}
	newUpper, err := m.refetch(ctx, tx, upper)
	if err != nil {
		return nil, err
	}

	pos, err := m.between(newLower, newUpper)
	if err != nil {
		return nil, err
	}
	if err := tx.SetPosition(ctx, item.ID, g, pos); err != nil {
		return nil, fmt.Errorf("failed to write position: %w", err)
	}

	items, err := tx.List(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("failed to list group: %w", err)
	}

	m.logger.Info("renormalized positions",
		"scope", scope,
		"group", g.String(),
		"item_id", item.ID,
		"items", len(items),
		"position", pos)

	item.Group = g
	item.Position = pos
	return &MoveResult{Item: item, Renormalized: true, Items: items}, nil
}

func (m *Manager) refetch(ctx context.Context, tx Tx, it *Item) (*Item, error) {
	if it == nil {
		return nil, nil
	}
	fresh, err := tx.Get(ctx, it.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to refetch neighbor %d: %w", it.ID, err)
	}
	return &fresh, nil
}

// between picks a position strictly inside the bounds. A missing bound encloses the
// range: below a lone upper bound is half of it, above a lone lower bound is double.
func (m *Manager) between(lower, upper *Item) (float64, error) {
	var pos float64
	switch {
	case lower != nil && upper != nil:
		pos = (lower.Position + upper.Position) / 2
	case lower != nil:
		pos = lower.Position * 2
	case upper != nil:
		pos = upper.Position / 2
	default:
		pos = m.cfg.Baseline
	}
	if err := ValidatePosition(pos); err != nil {
		return 0, ErrPositionExhausted
	}
	return pos, nil
}

// Remove soft-deletes an item. Remaining positions are left as they are.
func (m *Manager) Remove(ctx context.Context, store Store, id int) error {
	tx, err := store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer m.rollback(store, tx)

	if _, err := tx.Get(ctx, id); err != nil {
		return err
	}
	if err := tx.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (m *Manager) rollback(store Store, tx Tx) {
	if err := tx.Rollback(); err != nil {
		m.logger.Error("failed to rollback transaction", "scope", store.Scope(), "error", err)
	}
}
