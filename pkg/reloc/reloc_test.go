package reloc

import (
	"errors"
	"slices"
	"testing"
)

func TestPatchListOrder(t *testing.T) {
	t.Parallel()

	var p PatchList
	for _, off := range []int{0x24, 0x2C, 0x30} {
		p.Add(off)
	}
	got := p.Offsets()
	if !slices.Equal(got, []int{0x24, 0x2C, 0x30}) {
		t.Fatalf("offsets: got %v", got)
	}
	got[0] = 0
	if p.Offsets()[0] != 0x24 {
		t.Fatalf("Offsets must return a copy")
	}
	if p.Len() != 3 {
		t.Fatalf("len: got %d", p.Len())
	}
}

func TestDeltaCodecRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		offsets []int
		size    int
	}{
		{name: "empty", offsets: nil, size: 0},
		{name: "short", offsets: []int{0x24, 0x2C, 0x34, 0x3C}, size: 4},
		{name: "first equals base", offsets: []int{0x20, 0x24}, size: 2},
		{name: "mid", offsets: []int{0x24, 0x24 + 0x200}, size: 3},
		{name: "long", offsets: []int{0x24, 0x24 + 0x10000}, size: 5},
	}
	var codec Codec = DeltaCodec{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := codec.Encode(tt.offsets, 0x20)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if len(data) != tt.size {
				t.Fatalf("encoded size: got %d want %d", len(data), tt.size)
			}
			got, err := codec.Decode(data, 0x20)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !slices.Equal(got, tt.offsets) {
				t.Fatalf("round trip: got %v want %v", got, tt.offsets)
			}
		})
	}
}

func TestDeltaCodecRejects(t *testing.T) {
	t.Parallel()

	if _, err := (DeltaCodec{}).Encode([]int{0x30, 0x28}, 0x20); !errors.Is(err, ErrUnordered) {
		t.Fatalf("expected ErrUnordered, got %v", err)
	}
	if _, err := (DeltaCodec{}).Encode([]int{0x24, 0x24}, 0x20); !errors.Is(err, ErrUnordered) {
		t.Fatalf("duplicate: expected ErrUnordered, got %v", err)
	}
	if _, err := (DeltaCodec{}).Encode([]int{0x23}, 0x20); !errors.Is(err, ErrOddDelta) {
		t.Fatalf("expected ErrOddDelta, got %v", err)
	}
	if _, err := (DeltaCodec{}).Decode([]byte{0x01}, 0); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
