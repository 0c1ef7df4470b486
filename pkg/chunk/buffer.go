package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Buffer is an in-memory, seekable write target for building chunks.
//
// Encoders reserve space for fields whose value is not yet known, stream the
// payload, then patch the reserved fields once the layout is final. Writes at
// a position before the end overwrite; writes past the end extend the buffer.
type Buffer struct {
	buf []byte
	pos int
}

// NewBuffer returns an empty buffer with capacity preallocated.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, 0, max(capacity, 0))}
}

// Pos returns the current write position.
func (b *Buffer) Pos() int { return b.pos }

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.buf) }

// Bytes returns the buffer contents. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.buf }

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("chunk: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("chunk: negative position")
	}
	if abs > math.MaxInt32 {
		return 0, errors.New("chunk: position exceeds 32-bit range")
	}
	b.pos = int(abs)
	return abs, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.writeAt(b.pos, p)
	b.pos += len(p)
	return len(p), nil
}

func (b *Buffer) writeAt(at int, p []byte) {
	if end := at + len(p); end > len(b.buf) {
		if end > cap(b.buf) {
			grown := make([]byte, len(b.buf), max(end, 2*cap(b.buf)))
			copy(grown, b.buf)
			b.buf = grown
		}
		// A seek past the end leaves a hole that reads as zeros.
		clear(b.buf[len(b.buf):end])
		b.buf = b.buf[:end]
	}
	copy(b.buf[at:], p)
}

// WriteZeros writes n zero bytes.
func (b *Buffer) WriteZeros(n int) {
	if n <= 0 {
		return
	}
	b.writeAt(b.pos, make([]byte, n))
	b.pos += n
}

// Reserve writes n zero bytes and returns the position they start at.
func (b *Buffer) Reserve(n int) int {
	start := b.pos
	b.WriteZeros(n)
	return start
}

// Align pads with zeros until Pos is a multiple of n.
func (b *Buffer) Align(n int) {
	b.AlignFrom(0, n)
}

// AlignFrom pads with zeros until Pos-origin is a multiple of n.
func (b *Buffer) AlignFrom(origin, n int) {
	rel := b.pos - origin
	b.WriteZeros(alignUp(rel, n) - rel)
}

func (b *Buffer) WriteByte(v byte) error {
	b.writeAt(b.pos, []byte{v})
	b.pos++
	return nil
}

func (b *Buffer) WriteInt16(v int16) { b.WriteUint16(uint16(v)) }

func (b *Buffer) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	_, _ = b.Write(tmp[:])
}

func (b *Buffer) WriteInt32(v int32) { b.WriteUint32(uint32(v)) }

func (b *Buffer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	_, _ = b.Write(tmp[:])
}

func (b *Buffer) WriteFloat32(v float32) { b.WriteUint32(math.Float32bits(v)) }

// WriteCString writes s followed by a NUL terminator.
func (b *Buffer) WriteCString(s string) {
	_, _ = b.Write([]byte(s))
	_ = b.WriteByte(0)
}

// WriteFixedString writes s into an n byte field, NUL padded. s may fill the
// field completely, in which case no terminator is stored.
func (b *Buffer) WriteFixedString(s string, n int) error {
	if len(s) > n {
		return fmt.Errorf("chunk: string %q exceeds %d byte field", s, n)
	}
	_, _ = b.Write([]byte(s))
	b.WriteZeros(n - len(s))
	return nil
}

// PatchInt32 overwrites the 4 bytes at an already written position.
func (b *Buffer) PatchInt32(at int, v int32) error {
	return b.PatchUint32(at, uint32(v))
}

func (b *Buffer) PatchUint32(at int, v uint32) error {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return b.PatchBytes(at, tmp[:])
}

// PatchBytes overwrites len(p) bytes at at without moving the cursor. The
// target range must already have been written or reserved.
func (b *Buffer) PatchBytes(at int, p []byte) error {
	if at < 0 || at+len(p) > len(b.buf) {
		return fmt.Errorf("chunk: patch [%d,%d) outside written range %d", at, at+len(p), len(b.buf))
	}
	copy(b.buf[at:], p)
	return nil
}
