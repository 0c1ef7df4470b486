package script

import (
	"fmt"

	"github.com/samcharles93/flowkit/pkg/chunk"
	"github.com/samcharles93/flowkit/pkg/message"
)

// Open decodes the flow script chunk stored at path.
func Open(path string) (*Container, error) {
	f, err := chunk.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f.Data)
}

// ReadDirectory validates the chunk header and returns it with the section
// directory. Sections must tile the chunk from the end of the front matter
// and the string table must have its fixed size. The returned slice of data is trimmed to the declared length.
func ReadDirectory(data []byte) (chunk.Header, []chunk.Section, []byte, error) {
	hdr, ok := chunk.DecodeHeader(data)
	if !ok {
		return hdr, nil, nil, fmt.Errorf("%w: %d bytes, need %d for header", chunk.ErrUnexpectedEnd, len(data), chunk.HeaderSize)
	}
	if err := hdr.Expect(Tag); err != nil {
		return hdr, nil, nil, err
	}
	if int64(hdr.Length) > int64(len(data)) {
		return hdr, nil, nil, fmt.Errorf("%w: declared length %d, have %d bytes", chunk.ErrUnexpectedEnd, hdr.Length, len(data))
	}
	if hdr.Length < dataStart {
		return hdr, nil, nil, fmt.Errorf("%w: declared length %d shorter than front matter", chunk.ErrCorrupt, hdr.Length)
	}
	data = data[:hdr.Length]

	r := chunk.NewReader(data)
	if err := r.Seek(chunk.HeaderSize); err != nil {
		return hdr, nil, nil, err
	}
	count, err := r.Int32()
	if err != nil {
		return hdr, nil, nil, err
	}
	if count != sectionCount {
		return hdr, nil, nil, fmt.Errorf("%w: %d sections, want %d", chunk.ErrCorrupt, count, sectionCount)
	}
	if err := r.Align(16); err != nil {
		return hdr, nil, nil, err
	}
	raw, err := r.Bytes(int(count) * chunk.SectionSize)
	if err != nil {
		return hdr, nil, nil, err
	}
	dir, err := chunk.ParseDirectory(raw, int(count))
	if err != nil {
		return hdr, nil, nil, err
	}
	if err := chunk.ValidateDirectory(dir, ElementSizes, len(data)); err != nil {
		return hdr, nil, nil, err
	}
	seen := make(map[chunk.SectionType]bool, len(dir))
	for _, s := range dir {
		if seen[s.Type] {
			return hdr, nil, nil, fmt.Errorf("%w: duplicate section type %d", chunk.ErrCorrupt, s.Type)
		}
		seen[s.Type] = true
	}
	if err := chunk.CheckContiguous(dir, dataStart); err != nil {
		return hdr, nil, nil, err
	}
	if s, _ := chunk.Lookup(dir, SectionStrings); s.Span() != stringsSize {
		return hdr, nil, nil, fmt.Errorf("%w: string table is %d bytes, want %d", chunk.ErrSizeInvariant, s.Span(), stringsSize)
	}
	return hdr, dir, data, nil
}

// Decode parses a flow script chunk starting at data[0]. Trailing bytes past
// the declared chunk length are ignored.
func Decode(data []byte) (*Container, error) {
	hdr, dir, data, err := ReadDirectory(data)
	if err != nil {
		return nil, err
	}
	r := chunk.NewReader(data)

	c := &Container{UserID: hdr.UserID}
	var stream Stream
	for _, s := range dir {
		if err := r.Seek(int(s.DataOffset)); err != nil {
			return nil, err
		}
		switch s.Type {
		case SectionProcedures:
			c.Procedures, err = decodeLabels(r, int(s.ElementCount))
			c.ProceduresNeedSort = NeedsSort(c.Procedures)
		case SectionJumps:
			c.Jumps, err = decodeLabels(r, int(s.ElementCount))
			c.JumpsNeedSort = NeedsSort(c.Jumps)
		case SectionOpcodes:
			var code []byte
			if code, err = r.Bytes(s.Span()); err == nil {
				stream, err = DecodeInstructions(code)
			}
		case SectionMessages:
			if s.ElementCount > 0 {
				var body []byte
				if body, err = r.Bytes(s.Span()); err == nil {
					c.Messages, err = decodeEmbedded(body)
				}
			}
		case SectionStrings:
			// Reserved; never populated by known files.
		}
		if err != nil {
			return nil, fmt.Errorf("script: section %d: %w", s.Type, err)
		}
	}

	c.Instructions = stream.Instructions
	if c.Procedures == nil {
		c.Procedures = []Label{}
	}
	if c.Jumps == nil {
		c.Jumps = []Label{}
	}
	if c.Instructions == nil {
		c.Instructions = []Instruction{}
	}

	if stream.Extended {
		Reconcile(c.Procedures, stream.Offsets)
		Reconcile(c.Jumps, stream.Offsets)
	} else {
		// Every instruction is one word wide, so the stored offset is the index.
		for _, labels := range [][]Label{c.Procedures, c.Jumps} {
			for i := range labels {
				if labels[i].Index >= len(c.Instructions) {
					labels[i].Index = UnresolvedIndex
				}
			}
		}
	}
	return c, nil
}

// decodeEmbedded decodes the message chunk that must fill body exactly.
func decodeEmbedded(body []byte) (*message.Container, error) {
	hdr, ok := chunk.DecodeHeader(body)
	if !ok {
		return nil, fmt.Errorf("%w: %d byte message section has no header", chunk.ErrSizeInvariant, len(body))
	}
	if int(hdr.Length) != len(body) {
		return nil, fmt.Errorf("%w: embedded chunk declares %d bytes, section holds %d", chunk.ErrSizeInvariant, hdr.Length, len(body))
	}
	return message.Decode(body)
}
