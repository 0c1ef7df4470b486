package chunk

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
)

type SectionType int32

// Section locates one payload section. DataOffset is relative to the start of
// the chunk that owns the directory.
type Section struct {
	Type         SectionType
	ElementSize  int32
	ElementCount int32
	DataOffset   int32
}

// Span is the byte length covered by the section.
func (s Section) Span() int {
	return int(s.ElementSize) * int(s.ElementCount)
}

// End is the chunk-relative offset one past the last byte of the section.
func (s Section) End() int {
	return int(s.DataOffset) + s.Span()
}

// ElementSizes maps each section type of a format to the fixed size of one
// element. Section encoders and the directory must agree on these values.
type ElementSizes map[SectionType]int32

// SectionSpan is the input to BuildDirectory.
type SectionSpan struct {
	Type       SectionType
	Span       int
	DataOffset int
}

// BuildDirectory derives descriptors from byte spans. The directory keeps the
// order of spans.
func BuildDirectory(sizes ElementSizes, spans []SectionSpan) ([]Section, error) {
	out := make([]Section, 0, len(spans))
	for _, sp := range spans {
		size, ok := sizes[sp.Type]
		if !ok || size <= 0 {
			return nil, fmt.Errorf("%w: no element size for section type %d", ErrSizeInvariant, sp.Type)
		}
		if sp.Span < 0 || sp.Span%int(size) != 0 {
			return nil, fmt.Errorf("%w: section type %d span %d is not a multiple of %d", ErrSizeInvariant, sp.Type, sp.Span, size)
		}
		out = append(out, Section{
			Type:         sp.Type,
			ElementSize:  size,
			ElementCount: int32(sp.Span / int(size)),
			DataOffset:   int32(sp.DataOffset),
		})
	}
	return out, nil
}

// Lookup returns the first section of type t.
func Lookup(sections []Section, t SectionType) (Section, bool) {
	for _, s := range sections {
		if s.Type == t {
			return s, true
		}
	}
	return Section{}, false
}

func EncodeSection(dst []byte, s Section) bool {
	if len(dst) < SectionSize {
		return false
	}
	binary.LittleEndian.PutUint32(dst[0:4], uint32(s.Type))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(s.ElementSize))
	binary.LittleEndian.PutUint32(dst[8:12], uint32(s.ElementCount))
	binary.LittleEndian.PutUint32(dst[12:16], uint32(s.DataOffset))
	return true
}

func DecodeSection(src []byte) (Section, bool) {
	if len(src) < SectionSize {
		return Section{}, false
	}
	return Section{
		Type:         SectionType(int32(binary.LittleEndian.Uint32(src[0:4]))),
		ElementSize:  int32(binary.LittleEndian.Uint32(src[4:8])),
		ElementCount: int32(binary.LittleEndian.Uint32(src[8:12])),
		DataOffset:   int32(binary.LittleEndian.Uint32(src[12:16])),
	}, true
}

// EncodeDirectory returns the encoded form of sections.
func EncodeDirectory(sections []Section) []byte {
	out := make([]byte, len(sections)*SectionSize)
	for i, s := range sections {
		EncodeSection(out[i*SectionSize:], s)
	}
	return out
}

// ParseDirectory decodes count descriptors from the start of src.
func ParseDirectory(src []byte, count int) ([]Section, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative section count %d", ErrCorrupt, count)
	}
	if len(src)/SectionSize < count {
		return nil, fmt.Errorf("%w: directory of %d sections needs %d bytes, have %d", ErrUnexpectedEnd, count, count*SectionSize, len(src))
	}
	sections := make([]Section, count)
	for i := range sections {
		s, ok := DecodeSection(src[i*SectionSize:])
		if !ok {
			return nil, ErrUnexpectedEnd
		}
		sections[i] = s
	}
	return sections, nil
}

// ValidateDirectory checks every descriptor against the size table and the
// chunk length. All violations are reported together.
func ValidateDirectory(sections []Section, sizes ElementSizes, length int) error {
	var result error
	for i, s := range sections {
		want, ok := sizes[s.Type]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("%w: section %d has unknown type %d", ErrCorrupt, i, s.Type))
			continue
		}
		if s.ElementSize != want {
			result = multierror.Append(result, fmt.Errorf("%w: section %d (type %d) element size %d, want %d", ErrSizeInvariant, i, s.Type, s.ElementSize, want))
			continue
		}
		if s.ElementCount < 0 || s.DataOffset < 0 {
			result = multierror.Append(result, fmt.Errorf("%w: section %d has negative count or offset", ErrCorrupt, i))
			continue
		}
		if int64(s.DataOffset)+int64(s.ElementSize)*int64(s.ElementCount) > int64(length) {
			result = multierror.Append(result, fmt.Errorf("%w: section %d (type %d) spans [%d,%d) past chunk length %d", ErrSizeInvariant, i, s.Type, s.DataOffset, s.End(), length))
		}
	}
	return result
}

// CheckContiguous checks that sections, taken in offset order, cover the
// range starting at start with no gaps or overlaps. Empty sections must sit at
// the boundary between their neighbours.
func CheckContiguous(sections []Section, start int) error {
	ordered := slices.Clone(sections)
	slices.SortStableFunc(ordered, func(a, b Section) int {
		return cmp.Or(cmp.Compare(a.DataOffset, b.DataOffset), cmp.Compare(a.End(), b.End()))
	})
	var result error
	next := start
	for _, s := range ordered {
		switch {
		case int(s.DataOffset) < next:
			result = multierror.Append(result, fmt.Errorf("%w: section type %d at %d overlaps data ending at %d", ErrSizeInvariant, s.Type, s.DataOffset, next))
		case int(s.DataOffset) > next:
			result = multierror.Append(result, fmt.Errorf("%w: gap of %d bytes before section type %d at %d", ErrSizeInvariant, int(s.DataOffset)-next, s.Type, s.DataOffset))
		}
		next = max(next, s.End())
	}
	return result
}
