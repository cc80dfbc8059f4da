package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// encodeValue packs n little-endian into size bytes.
func encodeValue(n int64, size int) ([]byte, error) {
	b := make([]byte, size)
	switch size {
	case 1:
		if n < math.MinInt8 || n > math.MaxInt8 {
			return nil, fmt.Errorf("%d does not fit in 1 byte", n)
		}
		b[0] = byte(int8(n))
	case 2:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, fmt.Errorf("%d does not fit in 2 bytes", n)
		}
		binary.LittleEndian.PutUint16(b, uint16(int16(n)))
	case 4:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%d does not fit in 4 bytes", n)
		}
		binary.LittleEndian.PutUint32(b, uint32(int32(n)))
	case 8:
		binary.LittleEndian.PutUint64(b, uint64(n))
	default:
		return nil, fmt.Errorf("%w, got %d", errValueSize, size)
	}
	return b, nil
}

func decodeValue(b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	case 8:
		return int64(binary.LittleEndian.Uint64(b))
	}
	return 0
}

func parseValue(s string, size int) ([]byte, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("value %q is not an integer", s)
	}
	return encodeValue(n, size)
}
