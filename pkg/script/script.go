// Package script reads and writes flow script chunks ("FLW0").
//
// A flow script chunk is laid out as:
//
//	header           16 bytes
//	section count    int32, followed by an unused int32, padded to 16
//	directory        5 sections x 16 bytes
//	procedures       32 byte label records
//	jump labels      32 byte label records
//	opcodes          4 or 8 bytes per instruction
//	messages         optional embedded MSG1 chunk
//	strings          240 reserved zero bytes
//
// All directory offsets are relative to the start of the chunk.
package script

import (
	"github.com/samcharles93/flowkit/pkg/chunk"
	"github.com/samcharles93/flowkit/pkg/message"
)

const (
	Tag = "FLW0"

	headerKind   int16 = 0
	sectionCount       = 5
	// dataStart is where the first label record begins: header, section
	// count fields padded to 16, then the directory.
	dataStart   = 0x20 + sectionCount*chunk.SectionSize
	stringsSize = 0xF0
)

const (
	SectionProcedures chunk.SectionType = iota
	SectionJumps
	SectionOpcodes
	SectionMessages
	SectionStrings
)

// ElementSizes is the element size of every section type. The section
// encoders in this package write exactly these record sizes.
var ElementSizes = chunk.ElementSizes{
	SectionProcedures: labelSize,
	SectionJumps:      labelSize,
	SectionOpcodes:    4,
	SectionMessages:   1,
	SectionStrings:    1,
}

// Container is a decoded flow script chunk.
type Container struct {
	UserID       int16              `json:"user_id,omitempty"`
	Procedures   []Label            `json:"procedures"`
	Jumps        []Label            `json:"jumps"`
	Instructions []Instruction      `json:"instructions"`
	Messages     *message.Container `json:"messages,omitempty"`

	// ProceduresNeedSort and JumpsNeedSort are set by Decode when the stored
	// tables were not in ascending instruction order. Tables are never
	// reordered here.
	ProceduresNeedSort bool `json:"procedures_need_sort,omitempty"`
	JumpsNeedSort      bool `json:"jumps_need_sort,omitempty"`
}

// Reconcile recomputes every label's Index from its Offset against the
// current instruction list.
func (c *Container) Reconcile() {
	offsets := WordOffsets(c.Instructions)
	Reconcile(c.Procedures, offsets)
	Reconcile(c.Jumps, offsets)
}
