package message

import (
	"fmt"

	"github.com/samcharles93/flowkit/pkg/chunk"
	"github.com/samcharles93/flowkit/pkg/reloc"
)

type EncodeOptions struct {
	// Relocations encodes the pointer patch list. Defaults to reloc.DeltaCodec.
	Relocations reloc.Encoder
}

// Encode returns the chunk encoding of c.
func (c *Container) Encode() ([]byte, error) {
	return c.EncodeWith(EncodeOptions{})
}

func (c *Container) EncodeWith(opts EncodeOptions) ([]byte, error) {
	b := chunk.NewBuffer(dataOrigin + 64*len(c.Messages))
	if err := c.WriteTo(b, opts); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// WriteTo encodes c at the current position of b, which becomes the chunk
// origin. The origin must be 4 byte aligned.
func (c *Container) WriteTo(b *chunk.Buffer, opts EncodeOptions) error {
	_, err := c.writeTo(b, opts)
	return err
}

// writeTo returns the patch list it handed to the relocation encoder.
func (c *Container) writeTo(b *chunk.Buffer, opts EncodeOptions) (*reloc.PatchList, error) {
	enc := opts.Relocations
	if enc == nil {
		enc = reloc.DeltaCodec{}
	}
	origin := b.Pos()
	if origin%4 != 0 {
		return nil, fmt.Errorf("message: chunk origin %d is not 4 byte aligned", origin)
	}
	patches := &reloc.PatchList{}

	// Header and the fixed front-matter fields are written last.
	b.Reserve(dataOrigin)

	table := b.Pos()
	for range c.Messages {
		b.WriteInt32(0)
		patches.Add(b.Pos() - origin)
		b.WriteInt32(0)
	}
	actorTableField := b.Pos()
	patches.Add(actorTableField - origin)
	b.WriteInt32(0)
	b.WriteInt32(int32(len(c.ActorNames)))
	b.WriteInt32(0)
	b.WriteInt32(0)

	for i, msg := range c.Messages {
		kind, err := kindOf(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		b.AlignFrom(origin, 4)
		if err := b.PatchInt32(table+8*i, int32(kind)); err != nil {
			return nil, err
		}
		if err := b.PatchInt32(table+8*i+4, int32(b.Pos()-origin-dataOrigin)); err != nil {
			return nil, err
		}
		if err := encodeBody(b, msg, patches, origin); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
	}

	b.AlignFrom(origin, 4)
	if err := b.PatchInt32(actorTableField, int32(b.Pos()-origin-dataOrigin)); err != nil {
		return nil, err
	}
	if len(c.ActorNames) > 0 {
		actorTable := b.Pos()
		for range c.ActorNames {
			patches.Add(b.Pos() - origin)
			b.WriteInt32(0)
		}
		for i, name := range c.ActorNames {
			if err := b.PatchInt32(actorTable+4*i, int32(b.Pos()-origin-dataOrigin)); err != nil {
				return nil, err
			}
			b.WriteCString(name)
		}
	}

	relocTable, err := enc.Encode(patches.Offsets(), dataOrigin)
	if err != nil {
		return nil, fmt.Errorf("message: relocation table: %w", err)
	}
	relocOffset := b.Pos() - origin
	_, _ = b.Write(relocTable)
	length := b.Pos() - origin

	front := chunk.NewBuffer(dataOrigin)
	var hdr [chunk.HeaderSize]byte
	chunk.EncodeHeader(hdr[:], chunk.NewHeader(headerKind, c.UserID, int32(length), Tag))
	_, _ = front.Write(hdr[:])
	front.WriteInt32(int32(relocOffset))
	front.WriteInt32(int32(len(relocTable)))
	front.WriteInt32(int32(len(c.Messages)))
	front.WriteInt32(formatConstant)
	if err := b.PatchBytes(origin, front.Bytes()); err != nil {
		return nil, err
	}
	return patches, nil
}
