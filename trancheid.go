package tranchetable

import "encoding/binary"

// Number of tranches per table. Fixed, a table never rehashes.
const numTranches = 1 << 16

type trancheID = uint16

// trancheOf reads the tranche identifier straight out of the first two bytes
// of the key. Not a hash: keys with a common two byte prefix share a tranche,
// and a one byte key reads its second byte as zero.
func trancheOf(key string) (trancheID, error) {
	switch len(key) {
	case 0:
		return 0, ErrInvalidKey
	case 1:
		return trancheID(key[0]), nil
	}

	var pair [2]byte
	copy(pair[:], key)
	return binary.LittleEndian.Uint16(pair[:]), nil
}
