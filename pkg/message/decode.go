package message

import (
	"fmt"

	"github.com/samcharles93/flowkit/pkg/chunk"
	"github.com/samcharles93/flowkit/pkg/reloc"
)

// Layout is the front-matter of a message chunk.
type Layout struct {
	Header chunk.Header

	// RelocOffset is chunk-relative; RelocTable aliases the decoded data.
	RelocOffset int
	RelocTable  []byte
	Relocated   bool

	Entries          []Entry
	ActorTableOffset int32 // relative to the data origin
	ActorCount       int
}

// Open decodes the message chunk stored at path.
func Open(path string) (*Container, error) {
	f, err := chunk.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f.Data)
}

// ReadLayout parses the header and front-matter of the chunk at data[0].
func ReadLayout(data []byte) (*Layout, error) {
	l, _, err := readLayout(data)
	return l, err
}

func readLayout(data []byte) (*Layout, *chunk.Reader, error) {
	hdr, ok := chunk.DecodeHeader(data)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d bytes, need %d for header", chunk.ErrUnexpectedEnd, len(data), chunk.HeaderSize)
	}
	if err := hdr.Expect(Tag); err != nil {
		return nil, nil, err
	}
	if int64(hdr.Length) > int64(len(data)) {
		return nil, nil, fmt.Errorf("%w: declared length %d, have %d bytes", chunk.ErrUnexpectedEnd, hdr.Length, len(data))
	}
	if hdr.Length < dataOrigin {
		return nil, nil, fmt.Errorf("%w: declared length %d shorter than front matter", chunk.ErrCorrupt, hdr.Length)
	}
	data = data[:hdr.Length]

	r := chunk.NewReader(data)
	if err := r.Seek(chunk.HeaderSize); err != nil {
		return nil, nil, err
	}
	l := &Layout{Header: hdr}

	relocOffset, err := r.Int32()
	if err != nil {
		return nil, nil, err
	}
	relocSize, err := r.Int32()
	if err != nil {
		return nil, nil, err
	}
	count, err := r.Int32()
	if err != nil {
		return nil, nil, err
	}
	flag, err := r.Byte()
	if err != nil {
		return nil, nil, err
	}
	l.Relocated = flag != 0
	if err := r.Skip(3); err != nil {
		return nil, nil, err
	}
	if count < 0 || int64(count)*8 > int64(len(data)) {
		return nil, nil, fmt.Errorf("%w: message count %d", chunk.ErrCorrupt, count)
	}

	l.Entries = make([]Entry, count)
	for i := range l.Entries {
		kind, err := r.Int32()
		if err != nil {
			return nil, nil, err
		}
		off, err := r.Int32()
		if err != nil {
			return nil, nil, err
		}
		l.Entries[i] = Entry{Kind: Kind(kind), Offset: off}
	}
	if l.ActorTableOffset, err = r.Int32(); err != nil {
		return nil, nil, err
	}
	actors, err := r.Int32()
	if err != nil {
		return nil, nil, err
	}
	if actors < 0 || int64(actors)*4 > int64(len(data)) {
		return nil, nil, fmt.Errorf("%w: actor count %d", chunk.ErrCorrupt, actors)
	}
	l.ActorCount = int(actors)

	if relocOffset < 0 || relocSize < 0 || int64(relocOffset)+int64(relocSize) > int64(len(data)) {
		return nil, nil, fmt.Errorf("%w: relocation table [%d,+%d) outside chunk", chunk.ErrSizeInvariant, relocOffset, relocSize)
	}
	l.RelocOffset = int(relocOffset)
	l.RelocTable = data[relocOffset : relocOffset+relocSize]
	return l, r, nil
}

// Decode parses a message chunk starting at data[0]. Message bodies are read
// in table order by seeking to each entry.
func Decode(data []byte) (*Container, error) {
	l, r, err := readLayout(data)
	if err != nil {
		return nil, err
	}
	c := &Container{
		UserID:     l.Header.UserID,
		Messages:   make([]Message, len(l.Entries)),
		ActorNames: make([]string, l.ActorCount),
	}

	if l.ActorCount > 0 {
		if err := r.Seek(dataOrigin + int(l.ActorTableOffset)); err != nil {
			return nil, fmt.Errorf("message: actor table: %w", err)
		}
		ptrs := make([]int32, l.ActorCount)
		for i := range ptrs {
			if ptrs[i], err = r.Int32(); err != nil {
				return nil, fmt.Errorf("message: actor table: %w", err)
			}
		}
		for i, p := range ptrs {
			if err := r.Seek(dataOrigin + int(p)); err != nil {
				return nil, fmt.Errorf("message: actor %d: %w", i, err)
			}
			if c.ActorNames[i], err = r.CString(); err != nil {
				return nil, fmt.Errorf("message: actor %d: %w", i, err)
			}
		}
	}

	for i, e := range l.Entries {
		if c.Messages[i], err = decodeBody(r, e); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
	}
	return c, nil
}

// Patches decodes the relocation table with dec, or reloc.DeltaCodec when
// dec is nil. Offsets are chunk-relative.
func (l *Layout) Patches(dec reloc.Decoder) ([]int, error) {
	if dec == nil {
		dec = reloc.DeltaCodec{}
	}
	return dec.Decode(l.RelocTable, dataOrigin)
}
