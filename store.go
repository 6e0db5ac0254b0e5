package dough

import "iter"

// handle is a stable reference to a row of a table.
type handle int

// table stores rows of one kind of record. Rows are never moved: a removed
// row leaves a tombstone so that handles stay valid.
type table[T any] struct {
	rows []*T
	live int
}

// add stores v and returns its handle.
func (t *table[T]) add(v *T) handle {
	t.rows = append(t.rows, v)
	t.live++
	return handle(len(t.rows) - 1)
}

// get returns the row for h, or nil if it was removed.
func (t *table[T]) get(h handle) *T {
	if h < 0 || int(h) >= len(t.rows) {
		return nil
	}
	return t.rows[h]
}

// remove tombstones the row for h.
func (t *table[T]) remove(h handle) {
	if t.get(h) == nil {
		return
	}
	t.rows[h] = nil
	t.live--
}

// len returns the number of live rows.
func (t *table[T]) len() int { return t.live }

// all iterates over the live rows in insertion order.
func (t *table[T]) all() iter.Seq2[handle, *T] {
	return func(yield func(handle, *T) bool) {
		for i, r := range t.rows {
			if r == nil {
				continue
			}
			if !yield(handle(i), r) {
				return
			}
		}
	}
}

// uniqueIndex maps a key to at most one row.
type uniqueIndex[K comparable] map[K]handle

func (x uniqueIndex[K]) lookup(k K) (handle, bool) {
	h, ok := x[k]
	return h, ok
}
