// Package document converts between chunk bytes and the JSON document form
// shared by the CLI and the HTTP service.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/flowkit/internal/logger"
	"github.com/samcharles93/flowkit/pkg/chunk"
	"github.com/samcharles93/flowkit/pkg/message"
	"github.com/samcharles93/flowkit/pkg/script"
)

var (
	ErrUnsupportedTag = errors.New("document: unsupported chunk tag")
	ErrBody           = errors.New("document: body does not match tag")
)

// Document is a decoded chunk. Exactly one of Script and Message is set,
// matching Tag.
type Document struct {
	Tag     string             `json:"tag"`
	Script  *script.Container  `json:"script,omitempty"`
	Message *message.Container `json:"message,omitempty"`
}

// Options control encoding.
type Options struct {
	AllowUnresolvedLabels bool
	Logger                logger.Logger
}

// Decode dispatches on the chunk tag.
func Decode(data []byte) (*Document, error) {
	hdr, err := chunk.Peek(data)
	if err != nil {
		return nil, err
	}
	switch tag := hdr.TagString(); tag {
	case script.Tag:
		c, err := script.Decode(data)
		if err != nil {
			return nil, err
		}
		return &Document{Tag: tag, Script: c}, nil
	case message.Tag:
		c, err := message.Decode(data)
		if err != nil {
			return nil, err
		}
		return &Document{Tag: tag, Message: c}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedTag, tag)
	}
}

func (d *Document) Validate() error {
	switch d.Tag {
	case script.Tag:
		if d.Script == nil || d.Message != nil {
			return fmt.Errorf("%w: %s document needs a script body only", ErrBody, d.Tag)
		}
	case message.Tag:
		if d.Message == nil || d.Script != nil {
			return fmt.Errorf("%w: %s document needs a message body only", ErrBody, d.Tag)
		}
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedTag, d.Tag)
	}
	return nil
}

// Encode returns the chunk bytes of d.
func (d *Document) Encode(opts Options) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Script != nil {
		return d.Script.EncodeWith(script.EncodeOptions{
			AllowUnresolvedLabels: opts.AllowUnresolvedLabels,
			Logger:                opts.Logger,
		})
	}
	return d.Message.Encode()
}

// Summary is a one-line description for logs.
func (d *Document) Summary() string {
	switch {
	case d.Script != nil:
		s := fmt.Sprintf("%s: %d procedures, %d jumps, %d instructions",
			d.Tag, len(d.Script.Procedures), len(d.Script.Jumps), len(d.Script.Instructions))
		if d.Script.Messages != nil {
			s += fmt.Sprintf(", %d embedded messages", len(d.Script.Messages.Messages))
		}
		return s
	case d.Message != nil:
		return fmt.Sprintf("%s: %d messages, %d actors", d.Tag, len(d.Message.Messages), d.Message.ActorCount())
	default:
		return d.Tag
	}
}

// TagForKind maps the CLI kind names to chunk tags.
func TagForKind(kind string) (string, error) {
	switch strings.ToLower(kind) {
	case "script", "flw0":
		return script.Tag, nil
	case "message", "msg1":
		return message.Tag, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrUnsupportedTag, kind)
	}
}

// Parse reads a JSON document. A bare container without the tag envelope is
// accepted when tag names its type.
func Parse(data []byte, tag string) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	if d.Tag == "" && tag != "" {
		d = Document{Tag: tag}
		var err error
		switch tag {
		case script.Tag:
			d.Script = &script.Container{}
			err = json.Unmarshal(data, d.Script)
		case message.Tag:
			d.Message = &message.Container{}
			err = json.Unmarshal(data, d.Message)
		default:
			err = fmt.Errorf("%w %q", ErrUnsupportedTag, tag)
		}
		if err != nil {
			return nil, err
		}
	}
	if tag != "" && d.Tag != tag {
		return nil, fmt.Errorf("%w: document is %s, expected %s", ErrBody, d.Tag, tag)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Read parses a JSON document from r.
func Read(r io.Reader, tag string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, tag)
}

// Write writes d as indented JSON followed by a newline.
func (d *Document) Write(w io.Writer) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Grow(len(data) + 1)
	buf.Write(data)
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}
