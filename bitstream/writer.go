// Package bitstream implements the bit-level buffer shared by the string
// table and builtin encoders.
//
// Encoding conventions:
//   - Bit groups are written most-significant bit first.
//   - Groups are concatenated with no padding between them.
//   - The final partial byte is padded with zero bits on the low end.
package bitstream

import "fmt"

// Writer is an append-only bit buffer. The zero value is ready to use.
//
// A Writer is owned by a single encoding run; it is not safe for concurrent
// use.
type Writer struct {
	buf      []byte
	nbits    int
	finished bool
}

// NewWriter returns a Writer with room for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// AppendBits appends the low width bits of value. width must be in 1..32
// and value must fit in width bits; anything else is a programming error,
// since every call site validates its field range first.
func (w *Writer) AppendBits(value uint32, width int) {
	if w.finished {
		panic("bitstream: append after Finish")
	}
	if width < 1 || width > 32 {
		panic(fmt.Sprintf("bitstream: invalid width %d", width))
	}
	if width < 32 && value>>uint(width) != 0 {
		panic(fmt.Sprintf("bitstream: value %d does not fit in %d bits", value, width))
	}
	for i := width - 1; i >= 0; i-- {
		w.appendBit(value>>uint(i)&1 != 0)
	}
}

// AppendFlag appends a single bit.
func (w *Writer) AppendFlag(set bool) {
	if set {
		w.AppendBits(1, 1)
	} else {
		w.AppendBits(0, 1)
	}
}

// AppendBytes appends raw bytes at the current bit position. No alignment
// is performed.
func (w *Writer) AppendBytes(p []byte) {
	for _, b := range p {
		w.AppendBits(uint32(b), 8)
	}
}

// NumBits returns the number of bits written so far.
func (w *Writer) NumBits() int {
	return w.nbits
}

// Finish returns the byte-aligned buffer. The Writer must not be used
// afterwards.
func (w *Writer) Finish() []byte {
	w.finished = true
	out := w.buf
	w.buf = nil
	return out
}

func (w *Writer) appendBit(set bool) {
	if w.nbits%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if set {
		w.buf[len(w.buf)-1] |= 0x80 >> uint(w.nbits%8)
	}
	w.nbits++
}
