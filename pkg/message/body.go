package message

import (
	"fmt"

	"github.com/samcharles93/flowkit/pkg/chunk"
	"github.com/samcharles93/flowkit/pkg/reloc"
)

// encodeBody writes msg at the current position. Text pointers are recorded
// in patches relative to origin, the chunk start.
func encodeBody(b *chunk.Buffer, msg Message, patches *reloc.PatchList, origin int) error {
	switch m := msg.(type) {
	case *Dialog:
		if err := writeName(b, m.Name); err != nil {
			return err
		}
		b.WriteInt16(int16(len(m.Pages)))
		b.WriteUint16(m.Speaker)
		return writeTexts(b, m.Pages, patches, origin)
	case *Selection:
		if err := writeName(b, m.Name); err != nil {
			return err
		}
		b.WriteInt16(0)
		b.WriteInt16(int16(len(m.Options)))
		b.WriteInt32(0)
		return writeTexts(b, m.Options, patches, origin)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}
}

func writeName(b *chunk.Buffer, name string) error {
	if err := b.WriteFixedString(name, nameSize); err != nil {
		return fmt.Errorf("%w: %q is longer than %d bytes", ErrName, name, nameSize)
	}
	return nil
}

// writeTexts writes a pointer table, the text buffer size and the text
// buffer. Each text is NUL terminated.
func writeTexts(b *chunk.Buffer, texts []string, patches *reloc.PatchList, origin int) error {
	if len(texts) > 0x7FFF {
		return fmt.Errorf("message: %d text runs exceed table capacity", len(texts))
	}
	table := b.Pos()
	for range texts {
		patches.Add(b.Pos() - origin)
		b.WriteInt32(0)
	}
	sizeAt := b.Reserve(4)
	start := b.Pos()
	for i, text := range texts {
		if err := b.PatchInt32(table+4*i, int32(b.Pos()-origin-dataOrigin)); err != nil {
			return err
		}
		b.WriteCString(text)
	}
	return b.PatchInt32(sizeAt, int32(b.Pos()-start))
}

// decodeBody reads the body referenced by e. r spans the whole chunk.
func decodeBody(r *chunk.Reader, e Entry) (Message, error) {
	if err := r.Seek(dataOrigin + int(e.Offset)); err != nil {
		return nil, err
	}
	name, err := r.FixedString(nameSize)
	if err != nil {
		return nil, err
	}
	switch e.Kind {
	case KindDialog:
		count, err := r.Int16()
		if err != nil {
			return nil, err
		}
		speaker, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		pages, err := readTexts(r, int(count))
		if err != nil {
			return nil, err
		}
		return &Dialog{Name: name, Speaker: speaker, Pages: pages}, nil
	case KindSelection:
		if err := r.Skip(2); err != nil {
			return nil, err
		}
		count, err := r.Int16()
		if err != nil {
			return nil, err
		}
		if err := r.Skip(4); err != nil {
			return nil, err
		}
		options, err := readTexts(r, int(count))
		if err != nil {
			return nil, err
		}
		return &Selection{Name: name, Options: options}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int32(e.Kind))
	}
}

// readTexts reads a pointer table and its text buffer. A text runs from its
// pointer to the next one, or to the end of the buffer, minus one NUL.
func readTexts(r *chunk.Reader, count int) ([]string, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative text count %d", chunk.ErrCorrupt, count)
	}
	ptrs := make([]int, count)
	for i := range ptrs {
		p, err := r.Int32()
		if err != nil {
			return nil, err
		}
		ptrs[i] = dataOrigin + int(p)
	}
	size, err := r.Int32()
	if err != nil {
		return nil, err
	}
	start := r.Pos()
	buf, err := r.Bytes(int(size))
	if err != nil {
		return nil, err
	}
	end := start + len(buf)

	texts := make([]string, count)
	for i, p := range ptrs {
		stop := end
		if i+1 < count {
			stop = ptrs[i+1]
		}
		if p < start || stop > end || p > stop {
			return nil, fmt.Errorf("%w: text %d at [%d,%d) outside buffer [%d,%d)", chunk.ErrCorrupt, i, p, stop, start, end)
		}
		text := buf[p-start : stop-start]
		if n := len(text); n > 0 && text[n-1] == 0 {
			text = text[:n-1]
		}
		texts[i] = string(text)
	}
	return texts, nil
}
