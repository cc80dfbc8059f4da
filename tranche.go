package tranchetable

// An Entry is one key-value record. It is linked into exactly one tranche,
// the one named by the first two bytes of its key, and referenced exactly
// once from the table's order index.
type Entry[V any] struct {
	key   string
	value *V

	// owning tranche, kept as a plain field so unlinking never has to
	// recompute it from the key
	owner trancheID

	prev, next *Entry[V]
}

// Key returns the entry's key.
func (e *Entry[V]) Key() string {
	return e.key
}

// Value returns the entry's value. It is nil once the entry has been
// removed from its table.
func (e *Entry[V]) Value() *V {
	return e.value
}

// A tranche is a doubly-linked list of the entries that share a two byte key
// prefix. Entries are appended at the tail, so within a tranche they sit in
// insertion order.
type tranche[V any] struct {
	first, last *Entry[V]
	count       int
}

func (t *tranche[V]) find(key string) *Entry[V] {
	for e := t.first; e != nil; e = e.next {
		if e.key == key {
			return e
		}
	}
	return nil
}

func (t *tranche[V]) pushBack(e *Entry[V]) {
	e.prev = t.last
	e.next = nil
	if t.last != nil {
		t.last.next = e
	} else {
		t.first = e
	}
	t.last = e
	t.count++
}

// unlink detaches e and repairs the boundary pointers when e was the first or
// last entry.
func (t *tranche[V]) unlink(e *Entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		t.first = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		t.last = e.prev
	}
	e.prev, e.next = nil, nil
	t.count--
}
