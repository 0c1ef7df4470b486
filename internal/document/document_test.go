package document

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/samcharles93/flowkit/pkg/chunk"
	"github.com/samcharles93/flowkit/pkg/message"
	"github.com/samcharles93/flowkit/pkg/script"
)

func sampleScript() *script.Container {
	return &script.Container{
		Procedures: []script.Label{{Name: "main", Index: 0}},
		Jumps:      []script.Label{},
		Instructions: []script.Instruction{
			script.OpImm(script.PushUInt16, 5),
			script.OpImm(script.CallNative, 1),
			script.Op(script.Return),
		},
	}
}

func sampleMessages() *message.Container {
	return &message.Container{
		Messages: []message.Message{
			&message.Dialog{Name: "MSG_000", Speaker: message.NoSpeaker, Pages: []string{"Hi"}},
		},
		ActorNames: []string{},
	}
}

func TestDecodeDispatchesOnTag(t *testing.T) {
	t.Parallel()

	flw, err := sampleScript().Encode()
	if err != nil {
		t.Fatalf("encode script: %v", err)
	}
	msg, err := sampleMessages().Encode()
	if err != nil {
		t.Fatalf("encode messages: %v", err)
	}

	d, err := Decode(flw)
	if err != nil || d.Tag != script.Tag || d.Script == nil || d.Message != nil {
		t.Fatalf("script dispatch: %+v %v", d, err)
	}
	d, err = Decode(msg)
	if err != nil || d.Tag != message.Tag || d.Message == nil || d.Script != nil {
		t.Fatalf("message dispatch: %+v %v", d, err)
	}

	unknown := bytes.Clone(flw)
	copy(unknown[8:12], "XXXX")
	if _, err := Decode(unknown); !errors.Is(err, ErrUnsupportedTag) {
		t.Fatalf("expected ErrUnsupportedTag, got %v", err)
	}
	if _, err := Decode(flw[:4]); !errors.Is(err, chunk.ErrUnexpectedEnd) {
		t.Fatalf("expected ErrUnexpectedEnd, got %v", err)
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	t.Parallel()

	in := &Document{Tag: script.Tag, Script: sampleScript()}
	var buf bytes.Buffer
	if err := in.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "}\n") {
		t.Fatalf("missing trailing newline")
	}
	out, err := Read(&buf, "")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	a, err := in.Encode(Options{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := out.Encode(Options{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("parsed document encodes differently")
	}
}

func TestParseBareContainer(t *testing.T) {
	t.Parallel()

	raw := `{"messages":[{"kind":"selection","name":"SEL_000","options":["Yes","No"]}],"actor_names":[]}`
	d, err := Parse([]byte(raw), message.Tag)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sel, ok := d.Message.Messages[0].(*message.Selection)
	if !ok || len(sel.Options) != 2 {
		t.Fatalf("unexpected message: %#v", d.Message.Messages[0])
	}

	if _, err := Parse([]byte(raw), ""); !errors.Is(err, ErrUnsupportedTag) {
		t.Fatalf("bare container without kind: got %v", err)
	}

	wrapped := `{"tag":"MSG1","message":` + raw + `}`
	if _, err := Parse([]byte(wrapped), script.Tag); !errors.Is(err, ErrBody) {
		t.Fatalf("kind mismatch: got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  Document
		want error
	}{
		{"script without body", Document{Tag: script.Tag}, ErrBody},
		{"both bodies", Document{Tag: message.Tag, Script: sampleScript(), Message: sampleMessages()}, ErrBody},
		{"unknown tag", Document{Tag: "RMD0"}, ErrUnsupportedTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.doc.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTagForKind(t *testing.T) {
	t.Parallel()

	for kind, want := range map[string]string{"script": script.Tag, "MSG1": message.Tag, "message": message.Tag} {
		got, err := TagForKind(kind)
		if err != nil || got != want {
			t.Fatalf("TagForKind(%q) = %q, %v", kind, got, err)
		}
	}
	if _, err := TagForKind("texture"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	d := &Document{Tag: script.Tag, Script: sampleScript()}
	if got := d.Summary(); got != "FLW0: 1 procedures, 0 jumps, 3 instructions" {
		t.Fatalf("summary: %q", got)
	}
}
