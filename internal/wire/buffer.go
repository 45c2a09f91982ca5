// Package wire implements the bit-exact binary codec for the
// Chocolate Doom 3 wire protocol: a positional byte buffer with a read
// cursor, little-endian primitives, and encode/decode routines for
// every domain record in internal/protocol. It is pure and stateless —
// nothing here touches a socket or a clock.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortRead is returned when a read would run past the end of the
// buffer. Callers treat this as a decode failure (category 6 in the
// error taxonomy): drop the packet silently, don't advance state.
var ErrShortRead = errors.New("wire: short read")

// Buffer is a positional byte buffer: writes append, reads advance a
// cursor. The same type backs both directions so packet assembly and
// parsing share one set of field helpers.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer wraps an existing byte slice for reading.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// NewWriteBuffer returns an empty buffer ready for writes.
func NewWriteBuffer() *Buffer {
	return &Buffer{data: make([]byte, 0, 64)}
}

// Bytes returns the buffer's full backing slice (for writing) or the
// portion from position zero (for a freshly-wrapped read buffer).
func (b *Buffer) Bytes() []byte { return b.data }

// Remaining reports how many unread bytes remain.
func (b *Buffer) Remaining() int { return len(b.data) - b.pos }

// Reset rewinds the read cursor to the start of the buffer.
func (b *Buffer) Reset() { b.pos = 0 }

func (b *Buffer) need(n int) error {
	if b.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortRead, n, b.Remaining())
	}
	return nil
}

// --- 8-bit primitives ---

func (b *Buffer) WriteU8(v uint8) { b.data = append(b.data, v) }
func (b *Buffer) WriteI8(v int8)  { b.WriteU8(uint8(v)) }

func (b *Buffer) ReadU8() (uint8, error) {
	if err := b.need(1); err != nil {
		return 0, err
	}
	v := b.data[b.pos]
	b.pos++
	return v, nil
}

func (b *Buffer) ReadI8() (int8, error) {
	v, err := b.ReadU8()
	return int8(v), err
}

// --- 16-bit primitives, little-endian on the wire in both directions ---

func (b *Buffer) WriteU16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

func (b *Buffer) WriteI16(v int16) { b.WriteU16(uint16(v)) }

func (b *Buffer) ReadU16() (uint16, error) {
	if err := b.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(b.data[b.pos : b.pos+2])
	b.pos += 2
	return v, nil
}

func (b *Buffer) ReadI16() (int16, error) {
	v, err := b.ReadU16()
	return int16(v), err
}

// --- 32-bit primitives, little-endian on the wire in both directions ---

func (b *Buffer) WriteU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

func (b *Buffer) WriteI32(v int32) { b.WriteU32(uint32(v)) }

func (b *Buffer) ReadU32() (uint32, error) {
	if err := b.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(b.data[b.pos : b.pos+4])
	b.pos += 4
	return v, nil
}

func (b *Buffer) ReadI32() (int32, error) {
	v, err := b.ReadU32()
	return int32(v), err
}

// --- raw blobs (SHA-1 digests) ---

func (b *Buffer) WriteBlob(p []byte) { b.data = append(b.data, p...) }

func (b *Buffer) ReadBlob(n int) ([]byte, error) {
	if err := b.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b.data[b.pos:b.pos+n])
	b.pos += n
	return out, nil
}
