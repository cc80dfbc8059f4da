package tranchetable

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/hneemann/iterator"
)

// BlobConfig describes how a BlobTable manages its fixed size values.
type BlobConfig struct {
	// Init produces a fresh block for GetOrCreate. It must return exactly
	// the table's value size in bytes. The table adopts the slice.
	Init func() ([]byte, error)

	// ZeroInit makes GetOrCreate hand out zeroed blocks when Init is nil.
	ZeroInit bool

	Compare func(a, b []byte) int

	// Free is called on every block before the table lets go of it.
	// Required.
	Free func(v []byte) error

	MaxEntries int
	Logger     *slog.Logger
}

// A BlobTable is a Table of byte blocks that all have the same size, fixed
// when the table is made.
type BlobTable struct {
	t         Table[[]byte]
	valueSize int
}

// NewBlob makes a table whose values are valueSize bytes each.
func NewBlob(valueSize int, cfg BlobConfig) (*BlobTable, error) {
	if valueSize <= 0 {
		return nil, fmt.Errorf("%w: value size %d", ErrInvalidArgument, valueSize)
	}
	if cfg.Free == nil {
		return nil, fmt.Errorf("%w: no destructor", ErrMisconfigured)
	}

	b := &BlobTable{valueSize: valueSize}
	tcfg := Config[[]byte]{
		Free: func(v *[]byte) error {
			return cfg.Free(*v)
		},
		MaxEntries: cfg.MaxEntries,
		Logger:     cfg.Logger,
	}

	switch {
	case cfg.Init != nil:
		tcfg.Init = func() (*[]byte, error) {
			v, err := cfg.Init()
			if err != nil {
				return nil, err
			}
			if len(v) != valueSize {
				return nil, fmt.Errorf("initializer returned %d bytes, want %d", len(v), valueSize)
			}
			return &v, nil
		}
	case cfg.ZeroInit:
		tcfg.Init = func() (*[]byte, error) {
			v := make([]byte, valueSize)
			return &v, nil
		}
	}

	if cfg.Compare != nil {
		tcfg.Compare = func(a, b *[]byte) int {
			return cfg.Compare(*a, *b)
		}
	}

	if err := b.t.Init(tcfg); err != nil {
		return nil, err
	}
	return b, nil
}

var errNilBlob = fmt.Errorf("%w: nil table", ErrInvalidArgument)

func (b *BlobTable) checkSize(key string, value []byte) error {
	if b == nil {
		return errNilBlob
	}
	if len(value) != b.valueSize {
		return fmt.Errorf("%w: %q: value is %d bytes, want %d", ErrInvalidArgument, key, len(value), b.valueSize)
	}
	return nil
}

// ValueSize returns the size of every value in bytes.
func (b *BlobTable) ValueSize() int {
	if b == nil {
		return 0
	}
	return b.valueSize
}

// Len returns the number of entries.
func (b *BlobTable) Len() int {
	if b == nil {
		return 0
	}
	return b.t.Len()
}

// Set stores a copy of value under key. value must be exactly ValueSize
// bytes long. An existing block is released and then overwritten in place,
// so slices handed out earlier see the new bytes.
func (b *BlobTable) Set(key string, value []byte) error {
	if err := b.checkSize(key, value); err != nil {
		return err
	}
	return b.t.store(key,
		func(dst *[]byte) { copy(*dst, value) },
		func() *[]byte {
			v := bytes.Clone(value)
			return &v
		})
}

// SetOwned stores value under key without copying it. Passing the block the
// key already holds does nothing.
func (b *BlobTable) SetOwned(key string, value []byte) error {
	if err := b.checkSize(key, value); err != nil {
		return err
	}
	if held, ok := b.t.Find(key); ok && &(*held)[0] == &value[0] {
		return nil
	}
	return b.t.SetOwned(key, &value)
}

// GetOrCreate returns the block under key, creating it when missing.
func (b *BlobTable) GetOrCreate(key string) ([]byte, error) {
	if b == nil {
		return nil, errNilBlob
	}
	v, err := b.t.GetOrCreate(key)
	if err != nil {
		return nil, err
	}
	return *v, nil
}

// Find returns the block under key. The returned slice aliases the table's
// copy.
func (b *BlobTable) Find(key string) ([]byte, bool) {
	if b == nil {
		return nil, false
	}
	v, ok := b.t.Find(key)
	if !ok {
		return nil, false
	}
	return *v, true
}

// Remove deletes key.
func (b *BlobTable) Remove(key string) error {
	if b == nil {
		return errNilBlob
	}
	return b.t.Remove(key)
}

// Free releases every block and leaves the table uninitialized.
func (b *BlobTable) Free() error {
	if b == nil {
		return errNilBlob
	}
	return b.t.Free()
}

// KeyAt returns the key at position i of the insertion order.
func (b *BlobTable) KeyAt(i int) (string, error) {
	if b == nil {
		return "", errNilBlob
	}
	return b.t.KeyAt(i)
}

// ValueAt returns the block at position i of the insertion order.
func (b *BlobTable) ValueAt(i int) ([]byte, error) {
	if b == nil {
		return nil, errNilBlob
	}
	v, err := b.t.ValueAt(i)
	if err != nil {
		return nil, err
	}
	return *v, nil
}

// Iterate visits the entries in insertion order.
func (b *BlobTable) Iterate(iter func(key string, v []byte) bool) {
	if b == nil {
		return
	}
	b.t.Iterate(func(key string, v *[]byte) bool {
		return iter(key, *v)
	})
}

// All returns the entries in insertion order.
func (b *BlobTable) All() iterator.Producer[*Entry[[]byte]] {
	if b == nil {
		return iterator.Empty[*Entry[[]byte]]()
	}
	return b.t.All()
}

// Sorted returns a snapshot ordered by the configured comparator.
func (b *BlobTable) Sorted() (iterator.Producer[*Entry[[]byte]], error) {
	if b == nil {
		return nil, errNilBlob
	}
	return b.t.Sorted()
}

// Stats describes how the keys are spread over the tranches.
func (b *BlobTable) Stats() Stats {
	if b == nil {
		return Stats{}
	}
	return b.t.Stats()
}
