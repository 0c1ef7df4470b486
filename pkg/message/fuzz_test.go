package message

import (
	"testing"

	"github.com/samcharles93/flowkit/pkg/chunk"
)

// FuzzDecode checks that the layout reader and decoder never panic on
// arbitrary input. Errors are expected and acceptable.
func FuzzDecode(f *testing.F) {
	data, err := sampleContainer().Encode()
	if err != nil {
		f.Fatalf("encode seed: %v", err)
	}
	f.Add(data)

	empty, err := (&Container{}).Encode()
	if err != nil {
		f.Fatalf("encode seed: %v", err)
	}
	f.Add(empty)

	var hdr [chunk.HeaderSize]byte
	chunk.EncodeHeader(hdr[:], chunk.NewHeader(headerKind, 0, chunk.HeaderSize, Tag))
	f.Add(hdr[:])

	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		if l, err := ReadLayout(data); err == nil {
			_, _ = l.Patches(nil)
		}
		c, err := Decode(data)
		if err != nil {
			return
		}
		_, _ = c.Encode()
	})
}
