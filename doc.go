// Package tranchetable provides a string-keyed table that groups keys into
// 65536 fixed tranches by their first two bytes and remembers insertion
// order.
//
// Each tranche is a doubly-linked list scanned linearly, so lookups are O(1)
// as long as keys spread over many two byte prefixes and degrade towards O(n)
// when they do not. Next to the tranches the table keeps an order index,
// which is what KeyAt, ValueAt, Iterate and All walk.
//
// Values are managed through a Config: Free is called on every value before
// the table drops it, Init makes values for GetOrCreate and Compare orders
// values for Sorted.
//
//	m, err := tranchetable.New(tranchetable.Config[int8]{
//	    Free: tranchetable.FreeNothing[int8],
//	})
//	m.Set("a", 7)
//	m.Set("b", 29)
//	m.Remove("a")
//	key, _ := m.KeyAt(0) // "b"
//
// BlobTable is the same table over fixed size byte blocks.
package tranchetable
