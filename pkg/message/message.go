// Package message reads and writes dialog message chunks ("MSG1").
//
// Every pointer stored in a message chunk is relative to the data origin,
// 0x20 bytes past the chunk start, and is listed in the chunk's relocation
// table so the runtime can rebase it at load time.
package message

import (
	"errors"
	"fmt"
)

const (
	Tag = "MSG1"

	headerKind int16 = 7
	// dataOrigin is the chunk-relative offset all stored pointers are
	// measured from.
	dataOrigin = 0x20
	// formatConstant follows the message count. Its low byte is the
	// "relocated" flag read back by Layout.
	formatConstant int32 = 0x20000

	nameSize = 24
)

var (
	ErrUnknownKind = errors.New("message: unknown message kind")
	ErrName        = errors.New("message: name too long")
)

// Kind selects the body encoding of a message.
type Kind int32

const (
	KindDialog    Kind = 0
	KindSelection Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindDialog:
		return "dialog"
	case KindSelection:
		return "selection"
	default:
		return fmt.Sprintf("kind(%d)", int32(k))
	}
}

// Message is a dialog entry: *Dialog or *Selection.
type Message interface {
	Kind() Kind
	MessageName() string
}

// NoSpeaker is the Speaker value of a dialog without an actor.
const NoSpeaker uint16 = 0xFFFF

// Dialog is a standard message: a sequence of pages, optionally spoken by an
// actor from the container's actor name table.
type Dialog struct {
	Name    string
	Speaker uint16
	Pages   []string
}

// Selection is a player choice between several options.
type Selection struct {
	Name    string
	Options []string
}

func (*Dialog) Kind() Kind    { return KindDialog }
func (*Selection) Kind() Kind { return KindSelection }

func (d *Dialog) MessageName() string    { return d.Name }
func (s *Selection) MessageName() string { return s.Name }

// kindOf returns the kind of msg, rejecting nil interfaces and nil pointers.
func kindOf(msg Message) (Kind, error) {
	switch m := msg.(type) {
	case nil:
		return 0, fmt.Errorf("%w: nil message", ErrUnknownKind)
	case *Dialog:
		if m != nil {
			return KindDialog, nil
		}
	case *Selection:
		if m != nil {
			return KindSelection, nil
		}
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}
	return 0, fmt.Errorf("%w: nil %T", ErrUnknownKind, msg)
}

// Container is a decoded message chunk.
type Container struct {
	UserID     int16
	Messages   []Message
	ActorNames []string
}

func (c *Container) DialogCount() int { return len(c.Messages) }

func (c *Container) ActorCount() int { return len(c.ActorNames) }

// Entry is one row of the message pointer table.
type Entry struct {
	Kind   Kind
	Offset int32 // relative to the data origin
}
