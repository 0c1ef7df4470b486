// Package reloc records pointer fields that must be rebased when a chunk is
// loaded, and encodes them into a compact relocation table.
package reloc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrUnordered = errors.New("reloc: offsets must be increasing")
	ErrOddDelta  = errors.New("reloc: offset delta must be even")
	ErrTruncated = errors.New("reloc: truncated table")
)

// PatchList is the ordered set of chunk-relative byte offsets holding
// pointer values. It is built while encoding and consumed once by an Encoder.
type PatchList struct {
	offsets []int
}

// Add records a pointer field at chunk-relative offset off.
func (p *PatchList) Add(off int) {
	p.offsets = append(p.offsets, off)
}

func (p *PatchList) Len() int { return len(p.offsets) }

// Offsets returns a copy of the recorded offsets in insertion order.
func (p *PatchList) Offsets() []int {
	out := make([]int, len(p.offsets))
	copy(out, p.offsets)
	return out
}

// Encoder turns a patch list into relocation table bytes. The output length
// is recorded by the caller; the table itself carries no length field.
type Encoder interface {
	Encode(offsets []int, base int) ([]byte, error)
}

// Decoder recovers the offsets produced for an Encoder with the same base.
type Decoder interface {
	Decode(data []byte, base int) ([]int, error)
}

// Codec is both halves of a relocation table format.
type Codec interface {
	Encoder
	Decoder
}

// DeltaCodec stores each offset as the distance from its predecessor, the
// first one measured from base. Distances use the smallest of three forms,
// told apart by their low bits:
//
//	xxxxxxx0             1 byte, even distance < 0x100
//	xxxxxxxx xxxxxx01    2 bytes LE, distance<<1 | 1, distance < 0x8000
//	... xxxxxx11         4 bytes LE, distance<<2 | 3, distance < 0x40000000
//
// The layout has not been validated against tables produced by the game's
// own tooling; treat output as opaque until it has been.
type DeltaCodec struct{}

const (
	maxShortDelta = 0x100
	maxMidDelta   = 0x8000
	maxLongDelta  = 0x40000000
)

func (DeltaCodec) Encode(offsets []int, base int) ([]byte, error) {
	out := make([]byte, 0, len(offsets))
	prev := base
	for i, off := range offsets {
		d := off - prev
		switch {
		case d < 0 || (i > 0 && d == 0):
			return nil, fmt.Errorf("%w: entry %d at %d follows %d", ErrUnordered, i, off, prev)
		case d%2 != 0:
			return nil, fmt.Errorf("%w: entry %d at %d follows %d", ErrOddDelta, i, off, prev)
		case d < maxShortDelta:
			out = append(out, byte(d))
		case d < maxMidDelta:
			out = binary.LittleEndian.AppendUint16(out, uint16(d<<1|1))
		case d < maxLongDelta:
			out = binary.LittleEndian.AppendUint32(out, uint32(d<<2|3))
		default:
			return nil, fmt.Errorf("reloc: entry %d delta %d out of range", i, d)
		}
		prev = off
	}
	return out, nil
}

func (DeltaCodec) Decode(data []byte, base int) ([]int, error) {
	var out []int
	prev := base
	for i := 0; i < len(data); {
		var d int
		switch data[i] & 3 {
		case 0, 2:
			d = int(data[i])
			i++
		case 1:
			if i+2 > len(data) {
				return nil, ErrTruncated
			}
			d = int(binary.LittleEndian.Uint16(data[i:]) >> 1)
			i += 2
		case 3:
			if i+4 > len(data) {
				return nil, ErrTruncated
			}
			d = int(binary.LittleEndian.Uint32(data[i:]) >> 2)
			i += 4
		}
		prev += d
		out = append(out, prev)
	}
	return out, nil
}
