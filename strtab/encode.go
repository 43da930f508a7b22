package strtab

import (
	"encoding/base64"

	"github.com/tliron/commonlog"

	"github.com/svaarala/duktape-sub000/bitstream"
	"github.com/svaarala/duktape-sub000/derrors"
)

var log = commonlog.GetLogger("genbuiltins.strtab")

// 5-bit symbol alphabet. Codes 0-25 are letters in the current case.
const (
	symUnderscore = 26
	symInternal   = 27
	symSwitch1    = 29 // next letter is in the other case
	symSwitch     = 30 // flip case mode, then a letter follows
	symSevenBit   = 31 // a raw 7-bit byte follows

	lengthBits   = 5
	symbolBits   = 5
	sevenBitBits = 7

	// MaxLen is the longest string the 5-bit length prefix can carry.
	MaxLen = 1<<lengthBits - 1
)

// Stats counts how each character was encoded.
type Stats struct {
	Optimal  int
	Switch1  int
	Switch   int
	SevenBit int
}

// Encoded is the packed string table.
type Encoded struct {
	Data []byte
	// MaxLen is the length of the longest string.
	MaxLen int
	Stats  Stats
}

// Encode packs every string of t, in index order, into one bitstream.
// No end marker is written: the runtime knows each length from the
// prefix and the table size from DUK_HEAP_NUM_STRINGS.
func Encode(t *Table) (*Encoded, error) {
	w := bitstream.NewWriter(t.Len() * 8)
	enc := &Encoded{}
	for _, s := range t.strings {
		if err := encodeString(w, s.Key, &enc.Stats); err != nil {
			return nil, err
		}
		if len(s.Key) > enc.MaxLen {
			enc.MaxLen = len(s.Key)
		}
	}
	enc.Data = w.Finish()
	log.Infof("%d strings, %d bytes of string init data, %d maximum string length, encoding: optimal=%d,switch1=%d,switch=%d,sevenbit=%d",
		t.Len(), len(enc.Data), enc.MaxLen,
		enc.Stats.Optimal, enc.Stats.Switch1, enc.Stats.Switch, enc.Stats.SevenBit)
	return enc, nil
}

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func encodeString(w *bitstream.Writer, s string, st *Stats) error {
	if len(s) > MaxLen {
		return derrors.Capacityf(entity(s), "length", "%d bytes, at most %d fit the length prefix", len(s), MaxLen)
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return derrors.Capacityf(entity(s), "", "byte 0x%02x at offset %d does not fit 7 bits", s[i], i)
		}
	}

	w.AppendBits(uint32(len(s)), lengthBits)
	upperMode := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		var next byte
		if i+1 < len(s) {
			next = s[i+1]
		}
		switch {
		case c == '_':
			w.AppendBits(symUnderscore, symbolBits)
			st.Optimal++
		case c == 0x00:
			w.AppendBits(symInternal, symbolBits)
			st.Optimal++
		case isLower(c) && !upperMode:
			w.AppendBits(uint32(c-'a'), symbolBits)
			st.Optimal++
		case isUpper(c) && upperMode:
			w.AppendBits(uint32(c-'A'), symbolBits)
			st.Optimal++
		case isLower(c):
			if isLower(next) {
				w.AppendBits(symSwitch, symbolBits)
				upperMode = false
				st.Switch++
			} else {
				w.AppendBits(symSwitch1, symbolBits)
				st.Switch1++
			}
			w.AppendBits(uint32(c-'a'), symbolBits)
		case isUpper(c):
			if isUpper(next) {
				w.AppendBits(symSwitch, symbolBits)
				upperMode = true
				st.Switch++
			} else {
				w.AppendBits(symSwitch1, symbolBits)
				st.Switch1++
			}
			w.AppendBits(uint32(c-'A'), symbolBits)
		default:
			w.AppendBits(symSevenBit, symbolBits)
			w.AppendBits(uint32(c), sevenBitBits)
			st.SevenBit++
		}
	}
	return nil
}

// Base64 returns each string byte-exact as the runtime sees it, with the
// internal marker rewritten to 0xff, base64 encoded.
func (t *Table) Base64() []string {
	out := make([]string, len(t.strings))
	for i, s := range t.strings {
		b := []byte(s.Key)
		if len(b) > 0 && b[0] == 0x00 {
			b[0] = 0xff
		}
		out[i] = base64.StdEncoding.EncodeToString(b)
	}
	return out
}
