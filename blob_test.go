package tranchetable

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlob(t *testing.T, size int, cfg BlobConfig) *BlobTable {
	t.Helper()
	if cfg.Free == nil {
		cfg.Free = func([]byte) error { return nil }
	}
	b, err := NewBlob(size, cfg)
	require.NoError(t, err)
	return b
}

func TestBlobScenario(t *testing.T) {
	b := newBlob(t, 1, BlobConfig{
		ZeroInit: true,
		Compare:  func(a, b []byte) int { return int(int8(a[0])) - int(int8(b[0])) },
	})

	require.NoError(t, b.Set("a", []byte{7}))
	require.NoError(t, b.Set("b", []byte{29}))
	require.NoError(t, b.Remove("a"))

	assert.Equal(t, 1, b.Len())
	k, err := b.KeyAt(0)
	require.NoError(t, err)
	assert.Equal(t, "b", k)
	v, err := b.ValueAt(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{29}, v)
	_, ok := b.Find("a")
	assert.False(t, ok)
}

func TestBlobSetCopies(t *testing.T) {
	b := newBlob(t, 4, BlobConfig{})

	in := []byte{1, 2, 3, 4}
	require.NoError(t, b.Set("k", in))
	in[0] = 99

	got, ok := b.Find("k")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)

	owned := []byte{5, 6, 7, 8}
	require.NoError(t, b.SetOwned("o", owned))
	owned[0] = 50
	got, _ = b.Find("o")
	assert.Equal(t, []byte{50, 6, 7, 8}, got)
}

func TestBlobSizeChecks(t *testing.T) {
	_, err := NewBlob(0, BlobConfig{Free: func([]byte) error { return nil }})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewBlob(4, BlobConfig{})
	assert.ErrorIs(t, err, ErrMisconfigured)

	b := newBlob(t, 2, BlobConfig{})
	assert.Equal(t, 2, b.ValueSize())
	assert.ErrorIs(t, b.Set("k", []byte{1}), ErrInvalidArgument)
	assert.ErrorIs(t, b.Set("k", []byte{1, 2, 3}), ErrInvalidArgument)
	assert.ErrorIs(t, b.SetOwned("k", nil), ErrInvalidArgument)
	assert.Equal(t, 0, b.Len())
}

func TestBlobGetOrCreate(t *testing.T) {
	zero := newBlob(t, 3, BlobConfig{ZeroInit: true})
	v, err := zero.GetOrCreate("k")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0}, v)
	v[1] = 9
	again, err := zero.GetOrCreate("k")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 9, 0}, again)

	none := newBlob(t, 3, BlobConfig{})
	_, err = none.GetOrCreate("k")
	assert.ErrorIs(t, err, ErrMisconfigured)

	short := newBlob(t, 3, BlobConfig{
		Init: func() ([]byte, error) { return []byte{1}, nil },
	})
	_, err = short.GetOrCreate("k")
	assert.ErrorIs(t, err, ErrInitFailed)
	assert.Equal(t, 0, short.Len())

	boom := errors.New("boom")
	failing := newBlob(t, 3, BlobConfig{
		Init: func() ([]byte, error) { return nil, boom },
	})
	_, err = failing.GetOrCreate("k")
	assert.ErrorIs(t, err, boom)
}

func TestBlobFree(t *testing.T) {
	var freed [][]byte
	b := newBlob(t, 1, BlobConfig{
		Free: func(v []byte) error {
			freed = append(freed, v)
			return nil
		},
	})
	require.NoError(t, b.Set("some_key", []byte{7}))
	require.NoError(t, b.Set("jacob", []byte{32}))

	var seen []string
	b.Iterate(func(key string, v []byte) bool {
		seen = append(seen, key)
		return true
	})
	assert.Equal(t, []string{"some_key", "jacob"}, seen)

	require.NoError(t, b.Free())
	assert.Equal(t, [][]byte{{7}, {32}}, freed)
	assert.ErrorIs(t, b.Free(), ErrUninitialized)

	var nilBlob *BlobTable
	assert.ErrorIs(t, nilBlob.Free(), ErrInvalidArgument)
	assert.ErrorIs(t, nilBlob.Set("k", []byte{1}), ErrInvalidArgument)
	assert.ErrorIs(t, nilBlob.SetOwned("k", []byte{1}), ErrInvalidArgument)
	assert.ErrorIs(t, nilBlob.Remove("k"), ErrInvalidArgument)
	_, err := nilBlob.GetOrCreate("k")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = nilBlob.KeyAt(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = nilBlob.ValueAt(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = nilBlob.Sorted()
	assert.ErrorIs(t, err, ErrInvalidArgument)
	v, ok := nilBlob.Find("k")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 0, nilBlob.Len())
	assert.Equal(t, 0, nilBlob.ValueSize())
	assert.Equal(t, Stats{}, nilBlob.Stats())
	assert.Empty(t, collect(t, nilBlob.All()))
	nilBlob.Iterate(func(string, []byte) bool {
		t.Fatal("nil table has no entries")
		return false
	})
}

func TestBlobSetOverwritesInPlace(t *testing.T) {
	var freed [][]byte
	b := newBlob(t, 2, BlobConfig{
		ZeroInit: true,
		Free: func(v []byte) error {
			freed = append(freed, bytes.Clone(v))
			return nil
		},
	})

	held, err := b.GetOrCreate("k")
	require.NoError(t, err)
	require.NoError(t, b.Set("other", []byte{1, 1}))

	require.NoError(t, b.Set("k", []byte{5, 6}))

	assert.Equal(t, []byte{5, 6}, held, "earlier slice sees the update")
	now, ok := b.Find("k")
	require.True(t, ok)
	assert.Same(t, &held[0], &now[0])
	at, err := b.ValueAt(0)
	require.NoError(t, err)
	assert.Same(t, &held[0], &at[0])
	assert.Equal(t, [][]byte{{0, 0}}, freed, "destructor sees the old bytes")

	k, err := b.KeyAt(0)
	require.NoError(t, err)
	assert.Equal(t, "k", k)
	assert.Equal(t, 2, b.Len())
}

func TestBlobSetOwnedSameBlock(t *testing.T) {
	frees := 0
	b := newBlob(t, 1, BlobConfig{
		Free: func(v []byte) error {
			frees++
			v[0] = 0xff
			return nil
		},
	})

	block := []byte{7}
	require.NoError(t, b.SetOwned("k", block))
	require.NoError(t, b.SetOwned("k", block))

	assert.Equal(t, 0, frees)
	got, _ := b.Find("k")
	assert.Equal(t, []byte{7}, got)

	require.NoError(t, b.SetOwned("k", []byte{8}))
	assert.Equal(t, 1, frees)
	assert.Equal(t, []byte{0xff}, block)
}

func TestBlobSorted(t *testing.T) {
	b := newBlob(t, 1, BlobConfig{
		Compare: func(a, b []byte) int { return int(a[0]) - int(b[0]) },
	})
	require.NoError(t, b.Set("x", []byte{3}))
	require.NoError(t, b.Set("y", []byte{1}))
	require.NoError(t, b.Set("z", []byte{2}))

	sorted, err := b.Sorted()
	require.NoError(t, err)
	var keys []string
	for _, e := range collect(t, sorted) {
		keys = append(keys, e.Key())
	}
	assert.Equal(t, []string{"y", "z", "x"}, keys)
	assert.Len(t, collect(t, b.All()), 3)
	assert.Equal(t, 3, b.Stats().Entries)
}
