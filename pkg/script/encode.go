package script

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/samcharles93/flowkit/internal/logger"
	"github.com/samcharles93/flowkit/pkg/chunk"
	"github.com/samcharles93/flowkit/pkg/message"
	"github.com/samcharles93/flowkit/pkg/reloc"
)

type EncodeOptions struct {
	// AllowUnresolvedLabels writes labels whose Index matches no instruction
	// with offset 0 instead of failing.
	AllowUnresolvedLabels bool

	// Relocations encodes the relocation table of an embedded message chunk.
	// Defaults to reloc.DeltaCodec.
	Relocations reloc.Encoder

	// Logger receives a warning per unresolved label when they are allowed.
	Logger logger.Logger
}

// Encode returns the chunk encoding of c. The receiver is not modified.
func (c *Container) Encode() ([]byte, error) {
	return c.EncodeWith(EncodeOptions{})
}

func (c *Container) EncodeWith(opts EncodeOptions) ([]byte, error) {
	b := chunk.NewBuffer(dataStart + labelSize*(len(c.Procedures)+len(c.Jumps)) + 8*len(c.Instructions) + stringsSize)
	if err := c.WriteTo(b, opts); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// WriteTo encodes c at the current position of b.
func (c *Container) WriteTo(b *chunk.Buffer, opts EncodeOptions) error {
	origin := b.Pos()

	procs := slices.Clone(c.Procedures)
	jumps := slices.Clone(c.Jumps)
	res, err := bindLabels(procs, jumps)
	if err != nil {
		return err
	}

	// Header, directory and both label tables are written last; their size
	// is already known.
	labelsSpan := labelSize * (len(procs) + len(jumps))
	b.Reserve(dataStart + labelsSpan)

	opStart := b.Pos() - origin
	if err := encodeInstructions(b, c.Instructions, res.visit); err != nil {
		return err
	}
	opEnd := b.Pos() - origin

	if errs := res.unresolved(); len(errs) > 0 {
		if !opts.AllowUnresolvedLabels {
			return multierror.Append(nil, errs...).ErrorOrNil()
		}
		if opts.Logger != nil {
			for _, e := range errs {
				opts.Logger.Warn("writing unresolved label with offset 0", "error", e)
			}
		}
	}

	if c.Messages != nil {
		if err := c.Messages.WriteTo(b, message.EncodeOptions{Relocations: opts.Relocations}); err != nil {
			return fmt.Errorf("script: embedded messages: %w", err)
		}
	}
	msgEnd := b.Pos() - origin

	// The string table is unused; it is always emitted as a zero block.
	b.WriteZeros(stringsSize)
	length := b.Pos() - origin

	dir, err := chunk.BuildDirectory(ElementSizes, []chunk.SectionSpan{
		{Type: SectionProcedures, Span: labelSize * len(procs), DataOffset: dataStart},
		{Type: SectionJumps, Span: labelSize * len(jumps), DataOffset: dataStart + labelSize*len(procs)},
		{Type: SectionOpcodes, Span: opEnd - opStart, DataOffset: opStart},
		{Type: SectionMessages, Span: msgEnd - opEnd, DataOffset: opEnd},
		{Type: SectionStrings, Span: stringsSize, DataOffset: msgEnd},
	})
	if err != nil {
		return err
	}

	front := chunk.NewBuffer(dataStart + labelsSpan)
	var hdr [chunk.HeaderSize]byte
	chunk.EncodeHeader(hdr[:], chunk.NewHeader(headerKind, c.UserID, int32(length), Tag))
	_, _ = front.Write(hdr[:])
	front.WriteInt32(int32(len(dir)))
	front.WriteInt32(0)
	front.Align(16)
	_, _ = front.Write(chunk.EncodeDirectory(dir))
	if err := encodeLabels(front, procs); err != nil {
		return err
	}
	if err := encodeLabels(front, jumps); err != nil {
		return err
	}
	if front.Len() != dataStart+labelsSpan {
		return fmt.Errorf("%w: front matter is %d bytes, reserved %d", chunk.ErrSizeInvariant, front.Len(), dataStart+labelsSpan)
	}
	return b.PatchBytes(origin, front.Bytes())
}
