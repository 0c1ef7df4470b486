package chunk

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestHeaderEncodingLittleEndian(t *testing.T) {
	t.Parallel()

	h := NewHeader(7, 0x1122, 0x01020304, "MSG1")
	h.Reserved = 0x55667788
	var raw [HeaderSize]byte
	if !EncodeHeader(raw[:], h) {
		t.Fatalf("encode header failed")
	}
	if raw[0] != 0x07 || raw[1] != 0x00 {
		t.Fatalf("kind is not little-endian: %x", raw[0:2])
	}
	if raw[2] != 0x22 || raw[3] != 0x11 {
		t.Fatalf("user id is not little-endian: %x", raw[2:4])
	}
	if raw[4] != 0x04 || raw[7] != 0x01 {
		t.Fatalf("length is not little-endian: %x", raw[4:8])
	}
	if string(raw[8:12]) != "MSG1" {
		t.Fatalf("tag mismatch: %q", raw[8:12])
	}
	got, ok := DecodeHeader(raw[:])
	if !ok {
		t.Fatalf("decode header failed")
	}
	if got != h {
		t.Fatalf("header round-trip mismatch: got %+v want %+v", got, h)
	}
}

func TestHeaderExpect(t *testing.T) {
	t.Parallel()

	h := NewHeader(0, 0, HeaderSize, "FLW0")
	if err := h.Expect("FLW0"); err != nil {
		t.Fatalf("expect FLW0: %v", err)
	}
	if err := h.Expect("MSG1"); !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("expected ErrFormatMismatch, got %v", err)
	}
}

func TestPeek(t *testing.T) {
	t.Parallel()

	var raw [HeaderSize + 4]byte
	EncodeHeader(raw[:], NewHeader(0, 0, HeaderSize+4, "FLW0"))
	h, err := Peek(raw[:])
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if h.TagString() != "FLW0" {
		t.Fatalf("tag: got %q", h.TagString())
	}

	if _, err := Peek(raw[:8]); !errors.Is(err, ErrUnexpectedEnd) {
		t.Fatalf("short header: expected ErrUnexpectedEnd, got %v", err)
	}
	if _, err := Peek(raw[:HeaderSize]); !errors.Is(err, ErrUnexpectedEnd) {
		t.Fatalf("truncated chunk: expected ErrUnexpectedEnd, got %v", err)
	}
}

var testSizes = ElementSizes{0: 32, 1: 4, 2: 1}

func TestBuildDirectory(t *testing.T) {
	t.Parallel()

	secs, err := BuildDirectory(testSizes, []SectionSpan{
		{Type: 0, Span: 64, DataOffset: 0x70},
		{Type: 1, Span: 12, DataOffset: 0xB0},
		{Type: 2, Span: 0, DataOffset: 0xBC},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []Section{
		{Type: 0, ElementSize: 32, ElementCount: 2, DataOffset: 0x70},
		{Type: 1, ElementSize: 4, ElementCount: 3, DataOffset: 0xB0},
		{Type: 2, ElementSize: 1, ElementCount: 0, DataOffset: 0xBC},
	}
	for i := range want {
		if secs[i] != want[i] {
			t.Fatalf("section %d: got %+v want %+v", i, secs[i], want[i])
		}
		if secs[i].Span()%int(secs[i].ElementSize) != 0 {
			t.Fatalf("section %d: span %d not a multiple of element size", i, secs[i].Span())
		}
	}

	if _, err := BuildDirectory(testSizes, []SectionSpan{{Type: 1, Span: 6}}); !errors.Is(err, ErrSizeInvariant) {
		t.Fatalf("misaligned span: expected ErrSizeInvariant, got %v", err)
	}
	if _, err := BuildDirectory(testSizes, []SectionSpan{{Type: 9, Span: 4}}); !errors.Is(err, ErrSizeInvariant) {
		t.Fatalf("unknown type: expected ErrSizeInvariant, got %v", err)
	}
}

func TestDirectoryRoundTrip(t *testing.T) {
	t.Parallel()

	secs := []Section{
		{Type: 0, ElementSize: 32, ElementCount: 1, DataOffset: 0x70},
		{Type: 1, ElementSize: 4, ElementCount: 0x11223344, DataOffset: 0x01020304},
	}
	raw := EncodeDirectory(secs)
	if len(raw) != 2*SectionSize {
		t.Fatalf("directory size: got %d", len(raw))
	}
	if raw[16+8] != 0x44 || raw[16+11] != 0x11 {
		t.Fatalf("element count is not little-endian: %x", raw[24:28])
	}
	got, err := ParseDirectory(raw, 2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for i := range secs {
		if got[i] != secs[i] {
			t.Fatalf("section %d: got %+v want %+v", i, got[i], secs[i])
		}
	}
	if _, err := ParseDirectory(raw, 3); !errors.Is(err, ErrUnexpectedEnd) {
		t.Fatalf("expected ErrUnexpectedEnd, got %v", err)
	}
}

func TestValidateDirectory(t *testing.T) {
	t.Parallel()

	ok := []Section{
		{Type: 0, ElementSize: 32, ElementCount: 1, DataOffset: 0x10},
		{Type: 2, ElementSize: 1, ElementCount: 0, DataOffset: 0x30},
	}
	if err := ValidateDirectory(ok, testSizes, 0x30); err != nil {
		t.Fatalf("valid directory: %v", err)
	}

	bad := []Section{
		{Type: 0, ElementSize: 16, ElementCount: 1, DataOffset: 0x10},
		{Type: 1, ElementSize: 4, ElementCount: 100, DataOffset: 0x10},
	}
	err := ValidateDirectory(bad, testSizes, 0x40)
	if !errors.Is(err, ErrSizeInvariant) {
		t.Fatalf("expected ErrSizeInvariant, got %v", err)
	}
}

func TestCheckContiguous(t *testing.T) {
	t.Parallel()

	tiled := []Section{
		{Type: 2, ElementSize: 4, ElementCount: 3, DataOffset: 0x30},
		{Type: 0, ElementSize: 32, ElementCount: 1, DataOffset: 0x10},
		{Type: 1, ElementSize: 32, ElementCount: 0, DataOffset: 0x30},
		{Type: 3, ElementSize: 1, ElementCount: 0, DataOffset: 0x3C},
	}
	if err := CheckContiguous(tiled, 0x10); err != nil {
		t.Fatalf("contiguous directory: %v", err)
	}

	tests := []struct {
		name     string
		sections []Section
	}{
		{"overlap", []Section{
			{Type: 0, ElementSize: 32, ElementCount: 1, DataOffset: 0x10},
			{Type: 2, ElementSize: 4, ElementCount: 2, DataOffset: 0x2C},
		}},
		{"gap", []Section{
			{Type: 0, ElementSize: 32, ElementCount: 1, DataOffset: 0x10},
			{Type: 2, ElementSize: 4, ElementCount: 2, DataOffset: 0x34},
		}},
		{"late start", []Section{
			{Type: 0, ElementSize: 32, ElementCount: 1, DataOffset: 0x20},
		}},
		{"empty section inside another", []Section{
			{Type: 0, ElementSize: 32, ElementCount: 1, DataOffset: 0x10},
			{Type: 1, ElementSize: 32, ElementCount: 0, DataOffset: 0x18},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := CheckContiguous(tt.sections, 0x10); !errors.Is(err, ErrSizeInvariant) {
				t.Fatalf("expected ErrSizeInvariant, got %v", err)
			}
		})
	}
}

func TestBufferPatchAndAlign(t *testing.T) {
	t.Parallel()

	b := NewBuffer(0)
	at := b.Reserve(4)
	b.WriteUint16(0xBEEF)
	for _, n := range []int{4, 16} {
		b.Align(n)
		if b.Pos()%n != 0 {
			t.Fatalf("align %d: pos %d", n, b.Pos())
		}
	}
	if b.Len() != 16 {
		t.Fatalf("len after align: got %d", b.Len())
	}
	if err := b.PatchInt32(at, 0x01020304); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if b.Pos() != 16 {
		t.Fatalf("patch moved cursor to %d", b.Pos())
	}
	want := []byte{4, 3, 2, 1, 0xEF, 0xBE, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("bytes: got %x want %x", b.Bytes(), want)
	}
	if err := b.PatchInt32(14, 1); err == nil {
		t.Fatalf("expected error patching past the end")
	}

	b.WriteZeros(2)
	b.AlignFrom(2, 4)
	if (b.Pos()-2)%4 != 0 {
		t.Fatalf("align from origin: pos %d", b.Pos())
	}
}

func TestBufferSeekOverwrite(t *testing.T) {
	t.Parallel()

	b := NewBuffer(4)
	b.WriteCString("abc")
	if _, err := b.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	_ = b.WriteByte('x')
	if _, err := b.Seek(0, io.SeekEnd); err != nil {
		t.Fatalf("seek end: %v", err)
	}
	if err := b.WriteFixedString("hi", 4); err != nil {
		t.Fatalf("fixed string: %v", err)
	}
	if got := string(b.Bytes()); got != "xbc\x00hi\x00\x00" {
		t.Fatalf("contents: %q", got)
	}
	if err := b.WriteFixedString("toolong", 4); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestReader(t *testing.T) {
	t.Parallel()

	b := NewBuffer(0)
	b.WriteInt16(-2)
	b.WriteUint32(0xCAFEBABE)
	b.WriteFloat32(1.5)
	b.WriteCString("Hero")
	_ = b.WriteFixedString("main", 8)

	r := NewReader(b.Bytes())
	if v, err := r.Int16(); err != nil || v != -2 {
		t.Fatalf("int16: %d %v", v, err)
	}
	if v, err := r.Uint32(); err != nil || v != 0xCAFEBABE {
		t.Fatalf("uint32: %x %v", v, err)
	}
	if v, err := r.Float32(); err != nil || v != 1.5 {
		t.Fatalf("float32: %v %v", v, err)
	}
	if v, err := r.CString(); err != nil || v != "Hero" {
		t.Fatalf("cstring: %q %v", v, err)
	}
	if v, err := r.FixedString(8); err != nil || v != "main" {
		t.Fatalf("fixed string: %q %v", v, err)
	}
	if _, err := r.Uint16(); !errors.Is(err, ErrUnexpectedEnd) {
		t.Fatalf("expected ErrUnexpectedEnd, got %v", err)
	}
	if err := r.Seek(r.Len() + 1); !errors.Is(err, ErrUnexpectedEnd) {
		t.Fatalf("seek past end: expected ErrUnexpectedEnd, got %v", err)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.bin")
	var raw [HeaderSize]byte
	EncodeHeader(raw[:], NewHeader(0, 0, HeaderSize, "FLW0"))
	if err := os.WriteFile(path, raw[:], 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(f.Data, raw[:]) {
		t.Fatalf("data mismatch")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if f.Data != nil {
		t.Fatalf("data retained after close")
	}

	rf, err := OpenReaderAt(bytes.NewReader(raw[:]), HeaderSize)
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	if rf.mmapped {
		t.Fatalf("OpenReaderAt should not mmap")
	}
}
