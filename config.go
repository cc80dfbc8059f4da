package tranchetable

import (
	"fmt"
	"io"
	"log/slog"
)

// Config describes how a table manages its values.
type Config[V any] struct {
	// Init produces a fresh value for GetOrCreate. The table adopts the
	// returned pointer. Optional; GetOrCreate fails with ErrMisconfigured
	// without it.
	Init func() (*V, error)

	// Compare orders two values. Optional; only Sorted uses it.
	Compare func(a, b *V) int

	// Free is called on every value before the table lets go of it: on
	// overwrite, on Remove and on Free. Required.
	Free func(v *V) error

	// MaxEntries bounds the number of entries the table will hold. Zero
	// means no bound. Inserting past the bound fails with ErrAllocation.
	MaxEntries int

	// Logger receives debug records. Defaults to discarding everything.
	Logger *slog.Logger
}

func (c *Config[V]) validate() error {
	if c.Free == nil {
		return fmt.Errorf("%w: no destructor", ErrMisconfigured)
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("%w: negative MaxEntries %d", ErrInvalidArgument, c.MaxEntries)
	}
	return nil
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (c *Config[V]) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return discardLogger
}

// FreeNothing is a destructor for values that hold no resources.
func FreeNothing[V any](*V) error {
	return nil
}
