package bytecode

import "encoding/binary"

// Emitter accumulates object-file bytes in emission order.
// All multi-byte quantities are written little-endian. The emitter knows
// nothing of instruction semantics; it is pure sequential append plus
// patching of already-emitted regions (used for header finalization).
type Emitter struct {
	buf []byte
}

// NewEmitter returns an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{buf: make([]byte, 0, 256)}
}

// Byte appends a single byte.
func (e *Emitter) Byte(b byte) {
	e.buf = append(e.buf, b)
}

// Uint64 appends a 64-bit quantity as exactly eight bytes,
// least-significant byte first.
func (e *Emitter) Uint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// Raw appends p verbatim.
func (e *Emitter) Raw(p []byte) {
	e.buf = append(e.buf, p...)
}

// Patch overwrites already-emitted bytes starting at offset.
// The patched region must lie entirely within the emitted stream.
func (e *Emitter) Patch(offset int, p []byte) {
	copy(e.buf[offset:offset+len(p)], p)
}

// Len returns the number of bytes emitted so far.
func (e *Emitter) Len() int {
	return len(e.buf)
}

// Bytes returns the emitted stream. The slice is owned by the emitter.
func (e *Emitter) Bytes() []byte {
	return e.buf
}
