package store

import "sync"

// Table holds one entity type keyed by id. Every entity lives in exactly one
// table; views refer to it by id, so a patch is visible everywhere at once.
type Table[T any] struct {
	mu   sync.RWMutex
	rows map[string]T
	id   func(T) string
}

// NewTable creates an empty table
func NewTable[T any](id func(T) string) *Table[T] {
	return &Table[T]{rows: make(map[string]T), id: id}
}

// Upsert inserts or replaces entities. Entities without an id are skipped.
func (t *Table[T]) Upsert(items ...T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, item := range items {
		if id := t.id(item); id != "" {
			t.rows[id] = item
		}
	}
}

// Replace overwrites an entity only if it is already cached
func (t *Table[T]) Replace(item T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.id(item)
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = item
	return true
}

func (t *Table[T]) Get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	return v, ok
}

func (t *Table[T]) Has(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rows[id]
	return ok
}

// GetMany resolves ids in order, skipping ids that are not cached
func (t *Table[T]) GetMany(ids []string) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v, ok := t.rows[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Patch mutates a cached entity in place. Missing ids are a no-op.
func (t *Table[T]) Patch(id string, fn func(*T)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		return false
	}
	fn(&v)
	t.rows[id] = v
	return true
}

func (t *Table[T]) Delete(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		delete(t.rows, id)
	}
}

// Values returns every cached entity in no particular order
func (t *Table[T]) Values() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.rows))
	for _, v := range t.rows {
		out = append(out, v)
	}
	return out
}

func (t *Table[T]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = make(map[string]T)
}

func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
