package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Reader is a bounds-checked cursor over a chunk. Positions are absolute
// offsets into the slice handed to NewReader.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Pos() int { return r.pos }

func (r *Reader) Len() int { return len(r.data) }

// Seek moves the cursor to pos. Seeking to the end is allowed.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return fmt.Errorf("%w: seek to %d outside %d bytes", ErrUnexpectedEnd, pos, len(r.data))
	}
	r.pos = pos
	return nil
}

func (r *Reader) Skip(n int) error {
	return r.Seek(r.pos + n)
}

// Align skips forward until Pos is a multiple of n.
func (r *Reader) Align(n int) error {
	return r.Seek(alignUp(r.pos, n))
}

// Bytes returns the next n bytes. The slice aliases the underlying data.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || n > len(r.data)-r.pos {
		return nil, fmt.Errorf("%w: need %d bytes at %d, have %d", ErrUnexpectedEnd, n, r.pos, len(r.data)-r.pos)
	}
	p := r.data[r.pos : r.pos+n]
	r.pos += n
	return p, nil
}

func (r *Reader) Byte() (byte, error) {
	p, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (r *Reader) Uint16() (uint16, error) {
	p, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

func (r *Reader) Uint32() (uint32, error) {
	p, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// CString reads up to and including the next NUL and returns the bytes
// before it.
func (r *Reader) CString() (string, error) {
	rest := r.data[r.pos:]
	i := bytes.IndexByte(rest, 0)
	if i < 0 {
		return "", fmt.Errorf("%w: unterminated string at %d", ErrUnexpectedEnd, r.pos)
	}
	r.pos += i + 1
	return string(rest[:i]), nil
}

// FixedString reads an n byte NUL padded field.
func (r *Reader) FixedString(n int) (string, error) {
	p, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	return string(p), nil
}
