package script

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcode identifies a flow script instruction.
type Opcode uint16

const (
	PushUInt32 Opcode = iota
	PushFloat
	PushVariable
	PushFloatVariable
	PushResult
	SetVariable
	SetFloatVariable
	BeginProcedure
	CallNative
	Return
	Jump
	CallProcedure
	Run
	Goto
	Add
	Subtract
	Multiply
	Divide
	Negate
	LogicalNot
	LogicalOr
	LogicalAnd
	Equal
	NotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	JumpIfFalse
	PushUInt16
	PushLocalVariable
	PushLocalFloatVariable
	SetLocalVariable
	SetLocalFloatVariable
	PushString

	opcodeCount
)

// OperandClass describes how an opcode's operand is encoded.
type OperandClass uint8

const (
	// OperandNone: the high half of the instruction word is zero.
	OperandNone OperandClass = iota
	// OperandShort: a 16-bit immediate in the high half of the word.
	OperandShort
	// OperandWide: a 32-bit immediate in the following word.
	OperandWide
	// OperandFloat: a float32 in the following word.
	OperandFloat
)

type opcodeInfo struct {
	name  string
	class OperandClass
}

var opcodeTable = [opcodeCount]opcodeInfo{
	PushUInt32:             {"PushUInt32", OperandWide},
	PushFloat:              {"PushFloat", OperandFloat},
	PushVariable:           {"PushVariable", OperandShort},
	PushFloatVariable:      {"PushFloatVariable", OperandShort},
	PushResult:             {"PushResult", OperandNone},
	SetVariable:            {"SetVariable", OperandShort},
	SetFloatVariable:       {"SetFloatVariable", OperandShort},
	BeginProcedure:         {"BeginProcedure", OperandShort},
	CallNative:             {"CallNative", OperandShort},
	Return:                 {"Return", OperandNone},
	Jump:                   {"Jump", OperandShort},
	CallProcedure:          {"CallProcedure", OperandShort},
	Run:                    {"Run", OperandNone},
	Goto:                   {"Goto", OperandShort},
	Add:                    {"Add", OperandNone},
	Subtract:               {"Subtract", OperandNone},
	Multiply:               {"Multiply", OperandNone},
	Divide:                 {"Divide", OperandNone},
	Negate:                 {"Negate", OperandNone},
	LogicalNot:             {"LogicalNot", OperandNone},
	LogicalOr:              {"LogicalOr", OperandNone},
	LogicalAnd:             {"LogicalAnd", OperandNone},
	Equal:                  {"Equal", OperandNone},
	NotEqual:               {"NotEqual", OperandNone},
	LessThan:               {"LessThan", OperandNone},
	GreaterThan:            {"GreaterThan", OperandNone},
	LessThanOrEqual:        {"LessThanOrEqual", OperandNone},
	GreaterThanOrEqual:     {"GreaterThanOrEqual", OperandNone},
	JumpIfFalse:            {"JumpIfFalse", OperandShort},
	PushUInt16:             {"PushUInt16", OperandShort},
	PushLocalVariable:      {"PushLocalVariable", OperandShort},
	PushLocalFloatVariable: {"PushLocalFloatVariable", OperandShort},
	SetLocalVariable:       {"SetLocalVariable", OperandShort},
	SetLocalFloatVariable:  {"SetLocalFloatVariable", OperandShort},
	PushString:             {"PushString", OperandShort},
}

// Known reports whether op is part of the instruction set.
func (op Opcode) Known() bool { return op < opcodeCount }

// Class returns the operand encoding of op. Opcodes outside the instruction
// set are treated as carrying an optional 16-bit immediate.
func (op Opcode) Class() OperandClass {
	if !op.Known() {
		return OperandShort
	}
	return opcodeTable[op].class
}

// Width is the encoded size of an instruction with this opcode, in bytes.
func (op Opcode) Width() int {
	switch op.Class() {
	case OperandWide, OperandFloat:
		return 8
	default:
		return 4
	}
}

func (op Opcode) String() string {
	if op.Known() {
		return opcodeTable[op].name
	}
	return fmt.Sprintf("op_0x%04x", uint16(op))
}

// ParseOpcode accepts the names returned by Opcode.String.
func ParseOpcode(s string) (Opcode, error) {
	for i, info := range opcodeTable {
		if info.name == s {
			return Opcode(i), nil
		}
	}
	if hex, ok := strings.CutPrefix(s, "op_0x"); ok {
		v, err := strconv.ParseUint(hex, 16, 16)
		if err == nil {
			return Opcode(v), nil
		}
	}
	return 0, fmt.Errorf("script: unknown opcode %q", s)
}

func (op Opcode) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

func (op *Opcode) UnmarshalText(text []byte) error {
	v, err := ParseOpcode(string(text))
	if err != nil {
		return err
	}
	*op = v
	return nil
}
