package builtins

import (
	"encoding/binary"
	"math"

	"github.com/svaarala/duktape-sub000/derrors"
)

// ByteOrder selects the in-memory layout of doubles on the target.
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
	// MixedEndian is little endian with the two 32-bit halves swapped,
	// as on older ARM FPA targets.
	MixedEndian
)

// ByteOrders lists every supported order, in the order variants are
// emitted.
var ByteOrders = []ByteOrder{LittleEndian, BigEndian, MixedEndian}

func (b ByteOrder) String() string {
	switch b {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	case MixedEndian:
		return "mixed"
	}
	return "unknown"
}

// ParseByteOrder parses "little", "big" or "mixed".
func ParseByteOrder(s string) (ByteOrder, error) {
	for _, b := range ByteOrders {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, derrors.Schemaf("", "byte-order", "unknown byte order %q", s)
}

// EncodeDouble returns the target memory image of v.
func EncodeDouble(v float64, order ByteOrder) [8]byte {
	var b [8]byte
	bits := math.Float64bits(v)
	switch order {
	case BigEndian:
		binary.BigEndian.PutUint64(b[:], bits)
	case MixedEndian:
		binary.LittleEndian.PutUint32(b[0:4], uint32(bits>>32))
		binary.LittleEndian.PutUint32(b[4:8], uint32(bits))
	default:
		binary.LittleEndian.PutUint64(b[:], bits)
	}
	return b
}

// DecodeDouble is the inverse of EncodeDouble.
func DecodeDouble(b [8]byte, order ByteOrder) float64 {
	var bits uint64
	switch order {
	case BigEndian:
		bits = binary.BigEndian.Uint64(b[:])
	case MixedEndian:
		bits = uint64(binary.LittleEndian.Uint32(b[0:4]))<<32 | uint64(binary.LittleEndian.Uint32(b[4:8]))
	default:
		bits = binary.LittleEndian.Uint64(b[:])
	}
	return math.Float64frombits(bits)
}
