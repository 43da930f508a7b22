package builtins

import (
	"math"

	"github.com/svaarala/duktape-sub000/derrors"
)

// ResolveMagic turns a magic value into its 16-bit field value. A nil
// magic is 0. BidxOf needs the complete index, which is why it is passed
// in rather than grown alongside encoding.
func ResolveMagic(m Magic, idx *Index) (uint16, error) {
	switch m := m.(type) {
	case nil:
		return 0, nil
	case Literal:
		if m < math.MinInt16 || m > math.MaxInt16 {
			return 0, derrors.Capacityf("", "", "magic literal %d outside int16 range", int(m))
		}
		return uint16(int16(m)), nil
	case BidxOf:
		i, ok := idx.Lookup(string(m))
		if !ok {
			return 0, derrors.Schemaf("", "", "magic names unknown object id %q", string(m))
		}
		return uint16(i), nil
	default:
		return 0, derrors.Schemaf("", "", "unsupported magic %T", m)
	}
}
