package bitstream

import "fmt"

// Reader reads back a buffer produced by Writer, using the same helpers a
// runtime decoder uses. It exists for verification; the generator itself
// never decodes.
//
// Reads past the end of the buffer yield zero and record an error that
// Err reports.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader returns a Reader positioned at the first bit of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Bits reads an n-bit unsigned field, n in 1..32.
func (r *Reader) Bits(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		if r.pos >= len(r.data)*8 {
			if r.err == nil {
				r.err = fmt.Errorf("bitstream: read past end at bit %d", r.pos)
			}
			return 0
		}
		bit := r.data[r.pos/8] >> uint(7-r.pos%8) & 1
		v = v<<1 | uint32(bit)
		r.pos++
	}
	return v
}

// Flag reads a single bit.
func (r *Reader) Flag() bool {
	return r.Bits(1) != 0
}

// Flagged reads a flag bit; if set it reads and returns an n-bit field,
// otherwise it returns def.
func (r *Reader) Flagged(n int, def uint32) uint32 {
	if r.Flag() {
		return r.Bits(n)
	}
	return def
}

// Bytes reads n raw bytes at the current bit position.
func (r *Reader) Bytes(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(r.Bits(8))
	}
	return out
}

// Pos returns the current bit offset.
func (r *Reader) Pos() int {
	return r.pos
}

// Err returns the first read error, if any.
func (r *Reader) Err() error {
	return r.err
}
