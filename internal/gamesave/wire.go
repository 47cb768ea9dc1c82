package gamesave

import (
	"encoding/binary"
	"math"
)

// reader walks a byte slice. The first short read records an error and every
// later read returns zero, so callers check err once per section.
type reader struct {
	data    []byte
	off     int
	section string
	err     error
}

func newReader(data []byte, section string) *reader {
	return &reader{data: data, section: section}
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.err = parseErrorf(ParseCorrupt, "%s: unexpected end of data (need %d bytes at offset %d, have %d)",
			r.section, n, r.off, r.remaining())
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) skip(n int) {
	r.take(n)
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) i8() int8 {
	return int8(r.u8())
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) i32() int32 {
	return int32(r.u32())
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

// writer accumulates little-endian values.
type writer struct {
	buf []byte
}

func (w *writer) bytes() []byte {
	return w.buf
}

func (w *writer) raw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) i32(v int32) {
	w.u32(uint32(v))
}

func (w *writer) u64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *writer) f32(v float32) {
	w.u32(math.Float32bits(v))
}

func boolBits(flags ...bool) uint8 {
	var out uint8
	for i, f := range flags {
		if f {
			out |= 1 << i
		}
	}
	return out
}
