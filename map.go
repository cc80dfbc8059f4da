package tranchetable

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"unsafe"

	"github.com/hneemann/iterator"
)

// A tranche table. Stores key-value pairs in 65536 fixed tranches picked by
// the first two bytes of the key, and remembers the order in which keys were
// first inserted.
//
// A Table is not safe for concurrent use. Guard it with your own lock.
type Table[V any] struct {
	// nil when uninitialized or freed
	tranches []tranche[V]

	// every linked entry exactly once, in insertion order
	order []*Entry[V]

	init       func() (*V, error)
	compare    func(a, b *V) int
	free       func(v *V) error
	maxEntries int
	log        *slog.Logger
}

// New makes an initialized table.
func New[V any](cfg Config[V]) (*Table[V], error) {
	m := new(Table[V])
	if err := m.Init(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// Init initializes a zero or freed table in place. Initializing a live table
// is refused; Free it first.
func (m *Table[V]) Init(cfg Config[V]) error {
	if m == nil {
		return fmt.Errorf("%w: nil table", ErrInvalidArgument)
	}
	if m.tranches != nil {
		return fmt.Errorf("%w: table already initialized", ErrInvalidArgument)
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	*m = Table[V]{
		tranches:   make([]tranche[V], numTranches),
		init:       cfg.Init,
		compare:    cfg.Compare,
		free:       cfg.Free,
		maxEntries: cfg.MaxEntries,
		log:        cfg.logger(),
	}
	return nil
}

func (m *Table[V]) ready() error {
	if m == nil {
		return fmt.Errorf("%w: nil table", ErrInvalidArgument)
	}
	if m.tranches == nil {
		return ErrUninitialized
	}
	return nil
}

// Len returns the number of entries.
func (m *Table[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// ValueSize returns the size in bytes of one value as laid out in memory.
func (m *Table[V]) ValueSize() uintptr {
	var zero V
	return unsafe.Sizeof(zero)
}

// FindEntry returns the entry stored under key.
func (m *Table[V]) FindEntry(key string) (*Entry[V], bool) {
	if m.ready() != nil {
		return nil, false
	}
	id, err := trancheOf(key)
	if err != nil {
		return nil, false
	}

	e := m.tranches[id].find(key)
	return e, e != nil
}

// Find returns the value stored under key. The pointer stays valid until the
// key is removed or the table is freed. Overwriting the key with Set updates
// the pointed-to value in place.
func (m *Table[V]) Find(key string) (*V, bool) {
	e, ok := m.FindEntry(key)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Set stores a copy of v under key. An existing value is passed to the
// destructor and overwritten in place; the key keeps its position.
func (m *Table[V]) Set(key string, v V) error {
	return m.store(key,
		func(dst *V) { *dst = v },
		func() *V { return &v })
}

// SetOwned stores v under key without copying. The table takes ownership of
// v and will pass it to the destructor once it is replaced or removed.
// Passing the pointer the key already holds does nothing.
func (m *Table[V]) SetOwned(key string, v *V) error {
	if v == nil {
		return fmt.Errorf("%w: nil value for %q", ErrInvalidArgument, key)
	}
	id, e, err := m.lookup(key)
	if err != nil {
		return err
	}

	if e != nil {
		if e.value == v {
			return nil
		}
		if err := m.release(e); err != nil {
			return err
		}
		e.value = v
		m.log.Debug("replaced entry", "key", key, "tranche", id)
		return nil
	}

	return m.insert(id, key, v)
}

// store overwrites the value under an existing key through update, after the
// destructor has released it, or links a new entry holding fresh().
func (m *Table[V]) store(key string, update func(dst *V), fresh func() *V) error {
	id, e, err := m.lookup(key)
	if err != nil {
		return err
	}

	if e != nil {
		if err := m.release(e); err != nil {
			return err
		}
		update(e.value)
		m.log.Debug("updated entry", "key", key, "tranche", id)
		return nil
	}

	return m.insert(id, key, fresh())
}

// GetOrCreate returns the value under key, creating it with the configured
// initializer when the key is missing.
func (m *Table[V]) GetOrCreate(key string) (*V, error) {
	id, e, err := m.lookup(key)
	if err != nil {
		return nil, err
	}
	if e != nil {
		return e.value, nil
	}

	if m.init == nil {
		return nil, fmt.Errorf("%w: no initializer", ErrMisconfigured)
	}
	// check the budget before running user code that may allocate
	if err := m.reserve(); err != nil {
		return nil, err
	}

	v, err := m.init()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInitFailed, key, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %q: nil value", ErrInitFailed, key)
	}

	if err := m.insert(id, key, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Remove deletes key. The destructor runs before anything is unlinked; if it
// fails the entry stays where it was. The order of the remaining keys is
// kept.
func (m *Table[V]) Remove(key string) error {
	id, e, err := m.lookup(key)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	if err := m.release(e); err != nil {
		return err
	}

	m.tranches[e.owner].unlink(e)

	i := slices.Index(m.order, e)
	if i < 0 {
		// linked but not indexed, somebody broke the table
		panic("tranchetable: entry missing from order index")
	}
	m.order = slices.Delete(m.order, i, i+1)

	e.value = nil
	m.log.Debug("removed entry", "key", key, "tranche", id, "position", i)
	return nil
}

// Free releases every value through the destructor and returns the table to
// the uninitialized state. Freeing a table that was never initialized, or
// was already freed, returns ErrUninitialized and does nothing else.
//
// Destructor failures do not stop the teardown, they are all returned
// joined together.
func (m *Table[V]) Free() error {
	if err := m.ready(); err != nil {
		return err
	}

	var errs []error
	for _, e := range m.order {
		if err := m.release(e); err != nil {
			errs = append(errs, err)
		}
		e.value = nil
		e.prev, e.next = nil, nil
	}

	m.log.Debug("freed table", "entries", len(m.order), "failures", len(errs))
	*m = Table[V]{}
	return errors.Join(errs...)
}

// KeyAt returns the key at position i of the insertion order.
func (m *Table[V]) KeyAt(i int) (string, error) {
	e, err := m.EntryAt(i)
	if err != nil {
		return "", err
	}
	return e.key, nil
}

// ValueAt returns the value at position i of the insertion order.
func (m *Table[V]) ValueAt(i int) (*V, error) {
	e, err := m.EntryAt(i)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// EntryAt returns the entry at position i of the insertion order. Positions
// shift whenever a key is removed.
func (m *Table[V]) EntryAt(i int) (*Entry[V], error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(m.order) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(m.order))
	}
	return m.order[i], nil
}

// Iterates over all of the key-value pairs in insertion order. Don't modify
// the table while iterating.
func (m *Table[V]) Iterate(iter func(key string, v *V) bool) {
	if m == nil {
		return
	}
	for _, e := range m.order {
		if !iter(e.key, e.value) {
			return
		}
	}
}

// All returns the entries in insertion order. Each run reads the table as it
// is at that moment.
func (m *Table[V]) All() iterator.Producer[*Entry[V]] {
	return func(yield iterator.Consumer[*Entry[V]]) {
		if m == nil {
			return
		}
		for _, e := range m.order {
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Sorted returns a snapshot of the entries ordered by the configured
// comparator. Entries that compare equal keep their insertion order. The
// table itself is not reordered.
func (m *Table[V]) Sorted() (iterator.Producer[*Entry[V]], error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	if m.compare == nil {
		return nil, fmt.Errorf("%w: no comparator", ErrMisconfigured)
	}

	snapshot := slices.Clone(m.order)
	slices.SortStableFunc(snapshot, func(a, b *Entry[V]) int {
		return m.compare(a.value, b.value)
	})
	return iterator.Slice(snapshot), nil
}

// Stats describes how the keys are spread over the tranches.
type Stats struct {
	Entries      int
	UsedTranches int

	// the most crowded tranche; lookups there scan LongestChain entries
	LongestChain        int
	LongestChainTranche uint16
}

// Stats walks every tranche. The two byte scheme does nothing to spread keys
// with a common prefix, so expect long chains for such key sets.
func (m *Table[V]) Stats() Stats {
	var s Stats
	if m.ready() != nil {
		return s
	}
	for i := range m.tranches {
		t := &m.tranches[i]
		if t.count == 0 {
			continue
		}
		s.UsedTranches++
		s.Entries += t.count
		if t.count > s.LongestChain {
			s.LongestChain = t.count
			s.LongestChainTranche = uint16(i)
		}
	}
	return s
}

func (m *Table[V]) lookup(key string) (trancheID, *Entry[V], error) {
	if err := m.ready(); err != nil {
		return 0, nil, err
	}
	id, err := trancheOf(key)
	if err != nil {
		return 0, nil, err
	}
	return id, m.tranches[id].find(key), nil
}

// reserve makes room for one more reference in the order index. Runs before
// an entry is linked so that a failure leaves nothing half inserted.
func (m *Table[V]) reserve() error {
	if m.maxEntries > 0 && len(m.order) >= m.maxEntries {
		return fmt.Errorf("%w: table holds its maximum of %d entries", ErrAllocation, m.maxEntries)
	}
	m.order = slices.Grow(m.order, 1)
	return nil
}

func (m *Table[V]) insert(id trancheID, key string, v *V) error {
	if err := m.reserve(); err != nil {
		return err
	}

	e := &Entry[V]{
		key:   key,
		value: v,
		owner: id,
	}
	t := &m.tranches[id]
	t.pushBack(e)
	m.order = append(m.order, e)

	m.log.Debug("inserted entry", "key", key, "tranche", id, "chain", t.count, "entries", len(m.order))
	return nil
}

func (m *Table[V]) release(e *Entry[V]) error {
	if err := m.free(e.value); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrFreeFailed, e.key, err)
	}
	return nil
}
