// Package chunk implements the framing shared by relocatable resource chunks.
//
// Every chunk starts with a fixed 16 byte header followed by format specific
// front-matter. Formats that carry heterogeneous payloads describe them with a
// section directory of typed descriptors. All fields are little-endian.
package chunk

const (
	// HeaderSize is the encoded size of Header.
	HeaderSize = 16

	// SectionSize is the encoded size of a single Section descriptor.
	SectionSize = 16

	// TagSize is the length of the ASCII identifier stored in Header.Tag.
	TagSize = 4
)

// alignUp rounds n up to the next multiple of a.
func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	if mod := n % a; mod != 0 {
		return n + a - mod
	}
	return n
}
