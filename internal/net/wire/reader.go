package wire

import (
	"encoding/binary"
	"math"
)

// Reader decodes bincode-layout fields from a received payload: raw
// little-endian integers, bit-reinterpreted floats, and u64-length-prefixed
// UTF-8 strings. There are no self-describing tags; the caller reads each
// field at its declared width.
//
// Failure is a sticky flag, not an error return. Any read past the end of
// the buffer sets the flag, returns a zero value, and leaves the cursor
// where it was; every later read does the same. Callers check once after a
// decode sequence, not per field.
type Reader struct {
	data  []byte
	off   int
	valid bool
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, valid: true}
}

// can reports whether n more bytes may be consumed. Read nothing once the
// flag is down.
func (r *Reader) can(n int) bool {
	return r.valid && r.off+n <= len(r.data)
}

func (r *Reader) fail() {
	r.valid = false
}

// ReadU8 reads 1 unsigned byte.
func (r *Reader) ReadU8() uint8 {
	if !r.can(1) {
		r.fail()
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadU16 reads 2 bytes as little-endian uint16.
func (r *Reader) ReadU16() uint16 {
	if !r.can(2) {
		r.fail()
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadU32 reads 4 bytes as little-endian uint32.
func (r *Reader) ReadU32() uint32 {
	if !r.can(4) {
		r.fail()
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

// ReadU64 reads 8 bytes as little-endian uint64.
func (r *Reader) ReadU64() uint64 {
	if !r.can(8) {
		r.fail()
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

func (r *Reader) ReadI8() int8   { return int8(r.ReadU8()) }
func (r *Reader) ReadI16() int16 { return int16(r.ReadU16()) }
func (r *Reader) ReadI32() int32 { return int32(r.ReadU32()) }
func (r *Reader) ReadI64() int64 { return int64(r.ReadU64()) }

// ReadF32 reinterprets a little-endian u32 bit pattern as float32.
func (r *Reader) ReadF32() float32 {
	return math.Float32frombits(r.ReadU32())
}

// ReadF64 reinterprets a little-endian u64 bit pattern as float64.
func (r *Reader) ReadF64() float64 {
	return math.Float64frombits(r.ReadU64())
}

// ReadBool reads 1 byte; zero is false, anything else is true.
func (r *Reader) ReadBool() bool {
	return r.ReadU8() != 0
}

// ReadString reads a u64 byte-count prefix followed by that many UTF-8
// bytes. A prefix declaring more bytes than remain fails the reader,
// returns "", and rewinds the cursor to before the prefix.
func (r *Reader) ReadString() string {
	start := r.off
	length := r.ReadU64()
	if !r.valid {
		return ""
	}
	// Compare in uint64 space: converting the prefix to int first would
	// overflow r.off+n for huge prefixes and slip past the bounds check.
	if length > uint64(r.Remaining()) {
		r.off = start
		r.fail()
		return ""
	}
	n := int(length)
	s := string(r.data[r.off : r.off+n])
	r.off += n
	return s
}

// ReadVec3 reads three consecutive f32 components in declared order. If any
// component fails, the flag is already down and the partial result is
// meaningless; check IsValid after the decode sequence.
func (r *Reader) ReadVec3() Vec3 {
	return Vec3{X: r.ReadF32(), Y: r.ReadF32(), Z: r.ReadF32()}
}

// IsValid reports that no read has failed AND unread bytes remain. A fully
// consumed buffer therefore reads as not-valid; use HasError to ask about
// failure alone.
func (r *Reader) IsValid() bool {
	return r.valid && r.off < len(r.data)
}

// HasError reports whether any read has failed.
func (r *Reader) HasError() bool {
	return !r.valid
}

// Pos returns the current cursor offset.
func (r *Reader) Pos() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
