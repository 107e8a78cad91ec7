package ordering

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// memStore is a copy-on-begin in-memory Store used by the manager tests.
type memStore struct {
	mu      sync.Mutex
	rows    map[int]memRow
	nextID  int
	commits int

	// failOn makes the named Tx method fail once with failErr.
	failOn  string
	failErr error
	// conflicts makes the next n commits fail with ErrConcurrencyConflict.
	conflicts int
}

type memRow struct {
	item    Item
	deleted bool
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int]memRow)}
}

func (s *memStore) Scope() string { return "mem" }

// add inserts a row directly, bypassing the manager.
func (s *memStore) add(g Group, pos float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.rows[s.nextID] = memRow{item: Item{ID: s.nextID, Group: g, Position: pos}}
	return s.nextID
}

func (s *memStore) position(id int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id].item.Position
}

// ordered returns the ids of the live rows of g sorted by position.
func (s *memStore) ordered(g Group) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := liveItems(s.rows, g)
	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func (s *memStore) Begin(_ context.Context) (Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[int]memRow, len(s.rows))
	for id, r := range s.rows {
		snapshot[id] = r
	}
	return &memTx{store: s, rows: snapshot, dirty: make(map[int]bool)}, nil
}

// insert creates a row inside a transaction, as a typed store would.
func (t *memTx) insert(g Group, pos float64) int {
	t.store.mu.Lock()
	t.store.nextID++
	id := t.store.nextID
	t.store.mu.Unlock()
	t.rows[id] = memRow{item: Item{ID: id, Group: g, Position: pos}}
	t.dirty[id] = true
	return id
}

type memTx struct {
	store *memStore
	rows  map[int]memRow
	dirty map[int]bool
}

var errInjected = errors.New("injected failure")

func (t *memTx) fail(op string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.failOn == op {
		t.store.failOn = ""
		if t.store.failErr != nil {
			return t.store.failErr
		}
		return errInjected
	}
	return nil
}

func liveItems(rows map[int]memRow, g Group) []Item {
	var items []Item
	for _, r := range rows {
		if !r.deleted && r.item.Group == g {
			items = append(items, r.item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (t *memTx) Get(_ context.Context, id int) (Item, error) {
	if err := t.fail("Get"); err != nil {
		return Item{}, err
	}
	r, ok := t.rows[id]
	if !ok || r.deleted {
		return Item{}, ErrNotFound
	}
	return r.item, nil
}

func (t *memTx) MaxPosition(_ context.Context, g Group) (float64, bool, error) {
	items := liveItems(t.rows, g)
	if len(items) == 0 {
		return 0, false, nil
	}
	return items[len(items)-1].Position, true, nil
}

func (t *memTx) Below(_ context.Context, g Group, pos float64, exclude int) (*Item, error) {
	items := liveItems(t.rows, g)
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].ID != exclude && items[i].Position < pos {
			it := items[i]
			return &it, nil
		}
	}
	return nil, nil
}

func (t *memTx) Above(_ context.Context, g Group, pos float64, exclude int) (*Item, error) {
	for _, it := range liveItems(t.rows, g) {
		if it.ID != exclude && it.Position > pos {
			found := it
			return &found, nil
		}
	}
	return nil, nil
}

func (t *memTx) List(_ context.Context, g Group) ([]Item, error) {
	return liveItems(t.rows, g), nil
}

func (t *memTx) SetPosition(_ context.Context, id int, g Group, pos float64) error {
	if err := t.fail("SetPosition"); err != nil {
		return err
	}
	r := t.rows[id]
	r.item.Group = g
	r.item.Position = pos
	t.rows[id] = r
	t.dirty[id] = true
	return nil
}

func (t *memTx) Rerank(_ context.Context, g Group, exclude int, baseline float64) error {
	if err := t.fail("Rerank"); err != nil {
		return err
	}
	rank := 0
	for _, it := range liveItems(t.rows, g) {
		if it.ID == exclude {
			continue
		}
		pos, err := RankPosition(baseline, rank)
		if err != nil {
			return err
		}
		r := t.rows[it.ID]
		r.item.Position = pos
		t.rows[it.ID] = r
		t.dirty[it.ID] = true
		rank++
	}
	return nil
}

func (t *memTx) Delete(_ context.Context, id int) error {
	r := t.rows[id]
	r.deleted = true
	t.rows[id] = r
	t.dirty[id] = true
	return nil
}

func (t *memTx) Commit() error {
	if err := t.fail("Commit"); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.conflicts > 0 {
		t.store.conflicts--
		return ErrConcurrencyConflict
	}
	for id := range t.dirty {
		t.store.rows[id] = t.rows[id]
	}
	t.store.commits++
	return nil
}

func (t *memTx) Rollback() error {
	return nil
}
