package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/thenoetrevino/tablero/internal/ordering"
)

// positionTable describes how a positioned table maps onto ordering groups.
// Tickets group by status_id; statuses group by board_id and lane.
type positionTable struct {
	name     string
	noun     string
	groupCol string
	laneCol  string
	touchCol string
}

var (
	ticketPositions = positionTable{name: "tickets", noun: "ticket", groupCol: "status_id", touchCol: "updated_at"}
	statusPositions = positionTable{name: "statuses", noun: "status", groupCol: "board_id", laneCol: "lane"}
)

func (t positionTable) columns() string {
	if t.laneCol != "" {
		return fmt.Sprintf("id, %s, %s, position", t.groupCol, t.laneCol)
	}
	return fmt.Sprintf("id, %s, position", t.groupCol)
}

// groupFilter returns the WHERE fragment selecting the live rows of g.
func (t positionTable) groupFilter(g ordering.Group) (string, []any) {
	if t.laneCol != "" {
		return fmt.Sprintf("%s = ? AND %s = ? AND deleted = 0", t.groupCol, t.laneCol), []any{g.ID, g.Lane}
	}
	return fmt.Sprintf("%s = ? AND deleted = 0", t.groupCol), []any{g.ID}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (t positionTable) scan(row rowScanner) (ordering.Item, error) {
	var it ordering.Item
	var err error
	if t.laneCol != "" {
		err = row.Scan(&it.ID, &it.Group.ID, &it.Group.Lane, &it.Position)
	} else {
		err = row.Scan(&it.ID, &it.Group.ID, &it.Position)
	}
	return it, err
}

// positionTx implements ordering.Tx for one positioned table on top of *sql.Tx.
type positionTx struct {
	tx    *sql.Tx
	table positionTable
}

func beginPositionTx(ctx context.Context, db *sql.DB, table positionTable) (*positionTx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(err)
	}
	return &positionTx{tx: tx, table: table}, nil
}

func (p *positionTx) Get(ctx context.Context, id int) (ordering.Item, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND deleted = 0", p.table.columns(), p.table.name)
	it, err := p.table.scan(p.tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ordering.Item{}, fmt.Errorf("%s %d: %w", p.table.noun, id, ordering.ErrNotFound)
	}
	if err != nil {
		return ordering.Item{}, mapError(err)
	}
	return it, nil
}

func (p *positionTx) MaxPosition(ctx context.Context, g ordering.Group) (float64, bool, error) {
	where, args := p.table.groupFilter(g)
	query := fmt.Sprintf("SELECT MAX(position) FROM %s WHERE %s", p.table.name, where)
	var max sql.NullFloat64
	if err := p.tx.QueryRowContext(ctx, query, args...).Scan(&max); err != nil {
		return 0, false, mapError(err)
	}
	return max.Float64, max.Valid, nil
}

func (p *positionTx) Below(ctx context.Context, g ordering.Group, pos float64, exclude int) (*ordering.Item, error) {
	return p.neighbor(ctx, g, "position < ?", "position DESC, id DESC", pos, exclude)
}

func (p *positionTx) Above(ctx context.Context, g ordering.Group, pos float64, exclude int) (*ordering.Item, error) {
	return p.neighbor(ctx, g, "position > ?", "position ASC, id ASC", pos, exclude)
}

func (p *positionTx) neighbor(ctx context.Context, g ordering.Group, cmp, order string, pos float64, exclude int) (*ordering.Item, error) {
	where, args := p.table.groupFilter(g)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s AND %s AND id != ? ORDER BY %s LIMIT 1",
		p.table.columns(), p.table.name, where, cmp, order)
	args = append(args, pos, exclude)

	it, err := p.table.scan(p.tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &it, nil
}

func (p *positionTx) List(ctx context.Context, g ordering.Group) ([]ordering.Item, error) {
	where, args := p.table.groupFilter(g)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY position ASC, id ASC",
		p.table.columns(), p.table.name, where)

	rows, err := p.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	items := make([]ordering.Item, 0)
	for rows.Next() {
		it, err := p.table.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

func (p *positionTx) SetPosition(ctx context.Context, id int, g ordering.Group, pos float64) error {
	sets := []string{p.table.groupCol + " = ?"}
	args := []any{g.ID}
	if p.table.laneCol != "" {
		sets = append(sets, p.table.laneCol+" = ?")
		args = append(args, g.Lane)
	}
	sets = append(sets, "position = ?")
	args = append(args, pos)
	if p.table.touchCol != "" {
		sets = append(sets, p.table.touchCol+" = CURRENT_TIMESTAMP")
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", p.table.name, strings.Join(sets, ", "))
	if _, err := p.tx.ExecContext(ctx, query, args...); err != nil {
		return mapError(err)
	}
	return nil
}

func (p *positionTx) Rerank(ctx context.Context, g ordering.Group, exclude int, baseline float64) error {
	items, err := p.List(ctx, g)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET position = ? WHERE id = ?", p.table.name)
	stmt, err := p.tx.PrepareContext(ctx, query)
	if err != nil {
		return mapError(err)
	}
	defer stmt.Close()

	rank := 0
	for _, it := range items {
		if it.ID == exclude {
			continue
		}
		pos, err := ordering.RankPosition(baseline, rank)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, pos, it.ID); err != nil {
			return mapError(err)
		}
		rank++
	}
	return nil
}

func (p *positionTx) Delete(ctx context.Context, id int) error {
	query := fmt.Sprintf("UPDATE %s SET deleted = 1 WHERE id = ?", p.table.name)
	if _, err := p.tx.ExecContext(ctx, query, id); err != nil {
		return mapError(err)
	}
	return nil
}

func (p *positionTx) Commit() error {
	return mapError(p.tx.Commit())
}

func (p *positionTx) Rollback() error {
	if err := p.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
