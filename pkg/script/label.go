package script

import (
	"fmt"

	"github.com/samcharles93/flowkit/pkg/chunk"
)

const (
	labelSize     = 32
	labelNameSize = 24

	// UnresolvedIndex marks a label whose offset matches no instruction.
	UnresolvedIndex = -1
)

// Label names a position in the instruction stream: a procedure entry point
// or a jump target.
//
// Index is the logical instruction index. Offset is the word offset of that
// instruction in the encoded opcode block. Encoding derives Offset from
// Index; decoding derives Index from Offset.
type Label struct {
	Name   string `json:"name"`
	Index  int    `json:"index"`
	Offset uint32 `json:"offset"`
}

// UnresolvedLabelError reports a label whose Index matched no instruction
// while encoding.
type UnresolvedLabelError struct {
	Table string
	Name  string
	Index int
}

func (e *UnresolvedLabelError) Error() string {
	return fmt.Sprintf("script: %s label %q targets instruction %d which does not exist", e.Table, e.Name, e.Index)
}

func (e *UnresolvedLabelError) Unwrap() error { return ErrUnresolvedLabel }

func encodeLabels(b *chunk.Buffer, labels []Label) error {
	for _, l := range labels {
		if err := b.WriteFixedString(l.Name, labelNameSize); err != nil {
			return fmt.Errorf("%w: %q is longer than %d bytes", ErrLabelName, l.Name, labelNameSize)
		}
		b.WriteUint32(l.Offset)
		b.WriteUint32(0)
	}
	return nil
}

// decodeLabels reads count label records. Index is provisionally set to the
// stored word offset.
func decodeLabels(r *chunk.Reader, count int) ([]Label, error) {
	labels := make([]Label, count)
	for i := range labels {
		name, err := r.FixedString(labelNameSize)
		if err != nil {
			return nil, err
		}
		off, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		if err := r.Skip(4); err != nil {
			return nil, err
		}
		labels[i] = Label{Name: name, Index: int(off), Offset: off}
	}
	return labels, nil
}

// NeedsSort reports whether labels are not in ascending Index order.
func NeedsSort(labels []Label) bool {
	last := -1
	for _, l := range labels {
		if l.Index < last {
			return true
		}
		last = l.Index
	}
	return false
}

type labelRef struct {
	table string
	label *Label
}

// labelResolver assigns word offsets to labels as the instruction stream is
// emitted.
type labelResolver struct {
	byIndex  map[int]labelRef
	resolved map[*Label]bool
	order    []labelRef
}

func newLabelResolver(procs, jumps []Label) (*labelResolver, error) {
	r := &labelResolver{
		byIndex:  make(map[int]labelRef, len(procs)+len(jumps)),
		resolved: make(map[*Label]bool, len(procs)+len(jumps)),
	}
	add := func(table string, labels []Label) error {
		for i := range labels {
			ref := labelRef{table: table, label: &labels[i]}
			r.order = append(r.order, ref)
			if prev, ok := r.byIndex[labels[i].Index]; ok {
				return fmt.Errorf("%w: %s label %q and %s label %q both target instruction %d",
					ErrDuplicateLabelIndex, prev.table, prev.label.Name, table, labels[i].Name, labels[i].Index)
			}
			r.byIndex[labels[i].Index] = ref
		}
		return nil
	}
	if err := add("procedure", procs); err != nil {
		return nil, err
	}
	if err := add("jump", jumps); err != nil {
		return nil, err
	}
	return r, nil
}

// bindLabels clears every stored offset and returns a resolver that fills
// them in as instructions are visited.
func bindLabels(procs, jumps []Label) (*labelResolver, error) {
	for _, labels := range [][]Label{procs, jumps} {
		for i := range labels {
			if len(labels[i].Name) > labelNameSize {
				return nil, fmt.Errorf("%w: %q is longer than %d bytes", ErrLabelName, labels[i].Name, labelNameSize)
			}
			labels[i].Offset = 0
		}
	}
	return newLabelResolver(procs, jumps)
}

func (r *labelResolver) visit(index int, word uint32) {
	ref, ok := r.byIndex[index]
	if !ok || r.resolved[ref.label] {
		return
	}
	ref.label.Offset = word
	r.resolved[ref.label] = true
}

// unresolved returns an error per label never visited, in table order.
func (r *labelResolver) unresolved() []error {
	var errs []error
	for _, ref := range r.order {
		if !r.resolved[ref.label] {
			errs = append(errs, &UnresolvedLabelError{Table: ref.table, Name: ref.label.Name, Index: ref.label.Index})
		}
	}
	return errs
}

// ResolveLabels sets Offset on every procedure and jump label from its Index,
// as the encoder does. Labels whose Index matches no instruction keep offset
// 0 and are returned as errors.
func ResolveLabels(procs, jumps []Label, instrs []Instruction) ([]error, error) {
	res, err := bindLabels(procs, jumps)
	if err != nil {
		return nil, err
	}
	for i, word := range WordOffsets(instrs) {
		res.visit(i, word)
	}
	return res.unresolved(), nil
}

// Reconcile sets each label's Index to the instruction whose word offset
// equals the label's Offset. offsets holds the word offset of every
// instruction, as returned by WordOffsets or Stream.Offsets. Labels that
// match no instruction get UnresolvedIndex.
func Reconcile(labels []Label, offsets []uint32) {
	byWord := make(map[uint32]int, len(offsets))
	for i, w := range offsets {
		byWord[w] = i
	}
	for i := range labels {
		idx, ok := byWord[labels[i].Offset]
		if !ok {
			idx = UnresolvedIndex
		}
		labels[i].Index = idx
	}
}
