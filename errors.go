package tranchetable

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by table operations. Use [errors.Is] to check
// them; most are wrapped with the offending key or index.
var (
	// ErrInvalidArgument indicates a nil table, a nil value in adopt mode, a
	// payload of the wrong size, or a bad configuration limit.
	ErrInvalidArgument = errors.New("tranchetable: invalid argument")

	// ErrInvalidKey indicates an empty key. It also matches
	// ErrInvalidArgument.
	ErrInvalidKey = fmt.Errorf("%w: empty key", ErrInvalidArgument)

	// ErrAllocation indicates the table could not take another entry
	// because its entry budget ([Config.MaxEntries]) is exhausted.
	//
	// The table is left exactly as it was before the call.
	ErrAllocation = errors.New("tranchetable: allocation failed")

	// ErrNotFound indicates the key is not in the table. This is a normal
	// negative result, not a failure of the table.
	ErrNotFound = errors.New("tranchetable: not found")

	// ErrMisconfigured indicates the operation needs a callback that was
	// never supplied ([Config.Free], [Config.Init] or [Config.Compare]).
	ErrMisconfigured = errors.New("tranchetable: misconfigured")

	// ErrInitFailed indicates [Config.Init] returned an error or a nil
	// value during [Table.GetOrCreate].
	ErrInitFailed = errors.New("tranchetable: initializer failed")

	// ErrFreeFailed indicates [Config.Free] refused to release a value.
	ErrFreeFailed = errors.New("tranchetable: destructor failed")

	// ErrOutOfRange indicates a position outside [0, Len()).
	ErrOutOfRange = errors.New("tranchetable: index out of range")

	// ErrUninitialized indicates the table was never initialized or has
	// already been freed.
	ErrUninitialized = errors.New("tranchetable: uninitialized")
)
