package script

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/samcharles93/flowkit/pkg/chunk"
)

// Stream is a decoded opcode block.
type Stream struct {
	Instructions []Instruction
	// Offsets holds the word offset of each instruction within the block.
	Offsets []uint32
	// Extended is set if any instruction occupied two words, in which case
	// word offsets and instruction indices diverge.
	Extended bool
}

// WordOffsets returns the word offset each instruction would be encoded at.
func WordOffsets(instrs []Instruction) []uint32 {
	out := make([]uint32, len(instrs))
	var word uint32
	for i, in := range instrs {
		out[i] = word
		word += uint32(in.Width() / 4)
	}
	return out
}

// encodeInstructions appends instrs to b. visit is called before each
// instruction with its index and word offset relative to the block start.
func encodeInstructions(b *chunk.Buffer, instrs []Instruction, visit func(index int, word uint32)) error {
	start := b.Pos()
	for i, in := range instrs {
		if err := in.validate(); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		if visit != nil {
			visit(i, uint32((b.Pos()-start)/4))
		}

		b.WriteUint16(uint16(in.Opcode))
		switch in.Opcode.Class() {
		case OperandWide:
			b.WriteUint16(0)
			b.WriteUint32(uint32(in.Operand.(Immediate)))
		case OperandFloat:
			b.WriteUint16(0)
			b.WriteFloat32(float32(in.Operand.(Float)))
		default:
			var v uint16
			if imm, ok := in.Operand.(Immediate); ok {
				v = uint16(imm)
			}
			b.WriteUint16(v)
		}
	}
	return nil
}

// DecodeInstructions parses an opcode block.
func DecodeInstructions(code []byte) (Stream, error) {
	if len(code)%4 != 0 {
		return Stream{}, fmt.Errorf("%w: opcode block of %d bytes is not word aligned", chunk.ErrSizeInvariant, len(code))
	}
	words := len(code) / 4
	s := Stream{
		Instructions: make([]Instruction, 0, words),
		Offsets:      make([]uint32, 0, words),
	}
	for w := 0; w < words; {
		word := binary.LittleEndian.Uint32(code[w*4:])
		op := Opcode(word & 0xFFFF)
		hi := uint16(word >> 16)

		in := Instruction{Opcode: op}
		switch op.Class() {
		case OperandWide, OperandFloat:
			if w+1 >= words {
				return Stream{}, fmt.Errorf("%w: %s at word %d is missing its operand word", chunk.ErrUnexpectedEnd, op, w)
			}
			next := binary.LittleEndian.Uint32(code[(w+1)*4:])
			if op.Class() == OperandWide {
				in.Operand = Immediate(next)
			} else {
				in.Operand = Float(math.Float32frombits(next))
			}
			s.Extended = true
		case OperandShort:
			if op.Known() || hi != 0 {
				in.Operand = Immediate(hi)
			}
		}

		s.Instructions = append(s.Instructions, in)
		s.Offsets = append(s.Offsets, uint32(w))
		w += in.Width() / 4
	}
	return s, nil
}
