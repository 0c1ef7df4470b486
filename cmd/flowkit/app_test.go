package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/samcharles93/flowkit/pkg/message"
	"github.com/samcharles93/flowkit/pkg/script"
)

// runApp runs the CLI in-process. Commands share package state, so callers
// must not run in parallel.
func runApp(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv(envFlowkitConfig, filepath.Join(t.TempDir(), "absent.yaml"))

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	argv := append([]string{"flowkit", "--log-level", "error"}, args...)
	if err := app.Run(context.Background(), argv); err != nil {
		t.Fatalf("flowkit %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func writeScriptChunk(t *testing.T, dir string) (string, []byte) {
	t.Helper()
	c := &script.Container{
		Procedures: []script.Label{{Name: "main", Index: 0}},
		Jumps:      []script.Label{{Name: "_done", Index: 2}},
		Instructions: []script.Instruction{
			script.OpFloat(script.PushFloat, 0.5),
			script.OpImm(script.CallNative, 3),
			script.Op(script.Return),
		},
		Messages: &message.Container{
			Messages:   []message.Message{&message.Selection{Name: "SEL_000", Options: []string{"Yes", "No"}}},
			ActorNames: []string{},
		},
	}
	data, err := c.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(dir, "field.bf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write chunk: %v", err)
	}
	return path, data
}

func TestUnpackPackRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in, original := writeScriptChunk(t, dir)

	runApp(t, "unpack", "--in", in)
	jsonPath := filepath.Join(dir, "field.json")
	doc, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read unpacked document: %v", err)
	}
	if !bytes.Contains(doc, []byte(`"tag": "FLW0"`)) {
		t.Fatalf("unexpected document: %s", doc)
	}

	outPath := filepath.Join(dir, "repacked.bf")
	runApp(t, "pack", "--in", jsonPath, "--out", outPath)
	repacked, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read packed chunk: %v", err)
	}
	if !bytes.Equal(repacked, original) {
		t.Fatalf("repacked chunk differs: %d bytes vs %d", len(repacked), len(original))
	}
}

func TestPackBareContainer(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "event.json")
	body := `{"messages":[{"kind":"dialog","name":"MSG_000","pages":["Hi"]}],"actor_names":[]}`
	if err := os.WriteFile(in, []byte(body), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}

	runApp(t, "pack", "--in", in, "--kind", "message")
	c, err := message.Open(filepath.Join(dir, "event.bmd"))
	if err != nil {
		t.Fatalf("open packed message chunk: %v", err)
	}
	d, ok := c.Messages[0].(*message.Dialog)
	if !ok || d.Speaker != message.NoSpeaker || d.Pages[0] != "Hi" {
		t.Fatalf("unexpected message: %#v", c.Messages[0])
	}
}

func TestInspectJSON(t *testing.T) {
	in, original := writeScriptChunk(t, t.TempDir())

	out := runApp(t, "inspect", "--in", in, "--json")
	var report inspectReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Tag != script.Tag || int(report.Length) != len(original) {
		t.Fatalf("unexpected report header: %+v", report)
	}
	if len(report.Sections) != 5 || report.Sections[0].Name != "procedures" || report.Sections[0].DataOffset != 0x70 {
		t.Fatalf("unexpected sections: %+v", report.Sections)
	}
	if report.Sections[3].ElementCount == 0 {
		t.Fatalf("embedded messages section is empty")
	}
}

func TestInspectText(t *testing.T) {
	dir := t.TempDir()
	c := &message.Container{
		Messages:   []message.Message{&message.Dialog{Name: "MSG_000", Speaker: 0, Pages: []string{"a", "b"}}},
		ActorNames: []string{"Hero"},
	}
	data, err := c.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	in := filepath.Join(dir, "event.bmd")
	if err := os.WriteFile(in, data, 0o644); err != nil {
		t.Fatalf("write chunk: %v", err)
	}

	out := runApp(t, "inspect", "--in", in)
	for _, want := range []string{"tag:     MSG1", "relocation:", "dialog", "actors:  1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	scriptPath, _ := writeScriptChunk(t, dir)
	out = runApp(t, "inspect", "--in", scriptPath, "--disasm")
	for _, want := range []string{"main:", "  _done:", "PushFloat 0.5", "CallNative 3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in disassembly:\n%s", want, out)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	out := runApp(t, "version", "--json")
	if !strings.Contains(out, `"version":`) {
		t.Fatalf("unexpected version output: %s", out)
	}
}
