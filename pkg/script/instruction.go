package script

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Operand is an instruction argument: Immediate or Float. A nil Operand means
// the instruction has none.
type Operand interface {
	isOperand()
}

// Immediate is an integer operand. It is 16 bits wide except for PushUInt32.
type Immediate uint32

// Float is a 32-bit floating point operand.
type Float float32

func (Immediate) isOperand() {}
func (Float) isOperand()     {}

type Instruction struct {
	Opcode  Opcode
	Operand Operand
}

// Op builds an instruction without an operand.
func Op(op Opcode) Instruction { return Instruction{Opcode: op} }

// OpImm builds an instruction with an integer operand.
func OpImm(op Opcode, v uint32) Instruction {
	return Instruction{Opcode: op, Operand: Immediate(v)}
}

// OpFloat builds an instruction with a float operand.
func OpFloat(op Opcode, v float32) Instruction {
	return Instruction{Opcode: op, Operand: Float(v)}
}

// Width is the encoded size in bytes: 4, or 8 for extended instructions.
func (in Instruction) Width() int { return in.Opcode.Width() }

// Extended reports whether the instruction occupies two words.
func (in Instruction) Extended() bool { return in.Width() == 8 }

func (in Instruction) String() string {
	switch v := in.Operand.(type) {
	case Immediate:
		return fmt.Sprintf("%s %d", in.Opcode, uint32(v))
	case Float:
		return fmt.Sprintf("%s %g", in.Opcode, float32(v))
	default:
		return in.Opcode.String()
	}
}

// validate checks that the operand matches the opcode's encoding.
func (in Instruction) validate() error {
	switch in.Opcode.Class() {
	case OperandNone:
		if in.Operand != nil {
			return fmt.Errorf("%w: %s takes no operand", ErrOperand, in.Opcode)
		}
	case OperandShort:
		switch v := in.Operand.(type) {
		case nil:
			if in.Opcode.Known() {
				return fmt.Errorf("%w: %s requires an operand", ErrOperand, in.Opcode)
			}
		case Immediate:
			if v > 0xFFFF {
				return fmt.Errorf("%w: %s operand %d exceeds 16 bits", ErrOperand, in.Opcode, uint32(v))
			}
		default:
			return fmt.Errorf("%w: %s requires an integer operand", ErrOperand, in.Opcode)
		}
	case OperandWide:
		if _, ok := in.Operand.(Immediate); !ok {
			return fmt.Errorf("%w: %s requires an integer operand", ErrOperand, in.Opcode)
		}
	case OperandFloat:
		if _, ok := in.Operand.(Float); !ok {
			return fmt.Errorf("%w: %s requires a float operand", ErrOperand, in.Opcode)
		}
	}
	return nil
}

type instructionJSON struct {
	Op    Opcode   `json:"op"`
	Imm   *uint32  `json:"imm,omitempty"`
	Float *float32 `json:"float,omitempty"`
}

func (in Instruction) MarshalJSON() ([]byte, error) {
	doc := instructionJSON{Op: in.Opcode}
	switch v := in.Operand.(type) {
	case Immediate:
		imm := uint32(v)
		doc.Imm = &imm
	case Float:
		f := float32(v)
		doc.Float = &f
	}
	return json.Marshal(doc)
}

func (in *Instruction) UnmarshalJSON(data []byte) error {
	var doc instructionJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Imm != nil && doc.Float != nil {
		return fmt.Errorf("%w: %s has both imm and float", ErrOperand, doc.Op)
	}
	*in = Instruction{Opcode: doc.Op}
	switch {
	case doc.Imm != nil:
		in.Operand = Immediate(*doc.Imm)
	case doc.Float != nil:
		in.Operand = Float(*doc.Float)
	}
	return nil
}
