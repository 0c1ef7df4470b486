package chunk

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Header is the framing record at the start of every chunk.
type Header struct {
	Kind     int16
	UserID   int16
	Length   int32 // full encoded size including the header
	Tag      [TagSize]byte
	Reserved int32
}

// NewHeader returns a header with tag copied from s. Tags shorter than
// TagSize are NUL padded.
func NewHeader(kind int16, userID int16, length int32, tag string) Header {
	h := Header{Kind: kind, UserID: userID, Length: length}
	copy(h.Tag[:], tag)
	return h
}

// TagString returns the tag with trailing NULs removed.
func (h Header) TagString() string {
	return strings.TrimRight(string(h.Tag[:]), "\x00")
}

// Expect reports ErrFormatMismatch if the header tag is not tag.
func (h Header) Expect(tag string) error {
	if got := h.TagString(); got != tag {
		return fmt.Errorf("%w: tag %q, want %q", ErrFormatMismatch, got, tag)
	}
	return nil
}

func EncodeHeader(dst []byte, h Header) bool {
	if len(dst) < HeaderSize {
		return false
	}
	binary.LittleEndian.PutUint16(dst[0:2], uint16(h.Kind))
	binary.LittleEndian.PutUint16(dst[2:4], uint16(h.UserID))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(h.Length))
	copy(dst[8:12], h.Tag[:])
	binary.LittleEndian.PutUint32(dst[12:16], uint32(h.Reserved))
	return true
}

func DecodeHeader(src []byte) (Header, bool) {
	if len(src) < HeaderSize {
		return Header{}, false
	}
	var h Header
	h.Kind = int16(binary.LittleEndian.Uint16(src[0:2]))
	h.UserID = int16(binary.LittleEndian.Uint16(src[2:4]))
	h.Length = int32(binary.LittleEndian.Uint32(src[4:8]))
	copy(h.Tag[:], src[8:12])
	h.Reserved = int32(binary.LittleEndian.Uint32(src[12:16]))
	return h, true
}

// Peek decodes the header at the start of data and checks that the declared
// length fits inside data.
func Peek(data []byte) (Header, error) {
	h, ok := DecodeHeader(data)
	if !ok {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d for header", ErrUnexpectedEnd, len(data), HeaderSize)
	}
	if h.Length < HeaderSize {
		return Header{}, fmt.Errorf("%w: declared length %d smaller than header", ErrCorrupt, h.Length)
	}
	if int64(h.Length) > int64(len(data)) {
		return Header{}, fmt.Errorf("%w: declared length %d, have %d bytes", ErrUnexpectedEnd, h.Length, len(data))
	}
	return h, nil
}
