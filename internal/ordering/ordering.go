// Package ordering keeps sibling items (tickets in a status column, statuses in a
// board lane) sorted by a real-valued position without rewriting the whole group on
// every move.
//
// New items are appended at twice the current maximum. A move writes the requested
// position directly unless it sits between two items and matches one of them at
// the configured decimal precision, in which case every other item of the group
// is renumbered to Baseline*2^rank and the mover is placed between its refreshed
// neighbors.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Defaults for Config.
const (
	DefaultBaseline    = 1024.0
	DefaultPrecision   = 4
	DefaultMaxAttempts = 2
)

// Errors returned by the manager and by Store implementations.
var (
	ErrNotFound            = errors.New("item not found")
	ErrInvalidPosition     = errors.New("invalid position: must be a finite number greater than 0")
	ErrConcurrencyConflict = errors.New("concurrent reorder conflict")
	ErrPositionExhausted   = errors.New("position space exhausted")
)

// Group identifies a set of siblings ordered among themselves.
// Tickets use only ID (the status id); statuses use the board id plus a lane.
type Group struct {
	ID   int
	Lane string
}

func (g Group) String() string {
	if g.Lane == "" {
		return fmt.Sprintf("%d", g.ID)
	}
	return fmt.Sprintf("%d/%s", g.ID, g.Lane)
}

// Item is the ordering view of a row. Everything else on the row is opaque here.
type Item struct {
	ID       int     `json:"id"`
	Group    Group   `json:"-"`
	Position float64 `json:"position"`
}

// MoveRequest asks for ItemID to be placed in Group at Position.
type MoveRequest struct {
	ItemID   int
	Group    Group
	Position float64

	// Apply, when set, runs inside the move transaction before any position is
	// written. An error rolls the whole move back.
	Apply func(ctx context.Context, tx Tx) error
}

// MoveResult is the outcome of a move. Items is only set when the group was
// renormalized, and then holds every non-deleted item of the group in order.
type MoveResult struct {
	Item         Item
	Renormalized bool
	Items        []Item
}

// Config tunes position assignment.
type Config struct {
	// Baseline is the first position of an empty group and the multiplier used when
	// a group is renumbered.
	Baseline float64
	// Precision is the number of decimal digits kept when comparing positions.
	Precision int
	// MaxAttempts bounds how often a move is tried when the store reports a conflict.
	MaxAttempts int
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Baseline:    DefaultBaseline,
		Precision:   DefaultPrecision,
		MaxAttempts: DefaultMaxAttempts,
	}
}

func (c Config) withDefaults() Config {
	if c.Baseline <= 0 || math.IsInf(c.Baseline, 0) || math.IsNaN(c.Baseline) {
		c.Baseline = DefaultBaseline
	}
	if c.Precision < 0 {
		c.Precision = DefaultPrecision
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// ValidatePosition rejects non-positive and non-finite positions.
func ValidatePosition(pos float64) error {
	if math.IsNaN(pos) || math.IsInf(pos, 0) || pos <= 0 {
		return ErrInvalidPosition
	}
	return nil
}

// RankPosition is the position a renumbered item of the given rank receives.
func RankPosition(baseline float64, rank int) (float64, error) {
	pos := math.Ldexp(baseline, rank)
	if math.IsInf(pos, 0) {
		return 0, ErrPositionExhausted
	}
	return pos, nil
}
