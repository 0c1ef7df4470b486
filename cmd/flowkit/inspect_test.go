package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/samcharles93/flowkit/internal/logger"
	"github.com/samcharles93/flowkit/pkg/message"
)

// fixedTable writes the same relocation bytes regardless of the patch list,
// standing in for tables produced by other tools.
type fixedTable []byte

func (t fixedTable) Encode([]int, int) ([]byte, error) { return t, nil }

func TestBuildReportOpaqueRelocations(t *testing.T) {
	t.Parallel()

	c := &message.Container{
		Messages:   []message.Message{&message.Dialog{Name: "MSG_000", Speaker: message.NoSpeaker, Pages: []string{"Hi"}}},
		ActorNames: []string{},
	}
	table := fixedTable{0x02, 0x04, 0x07}
	data, err := c.EncodeWith(message.EncodeOptions{Relocations: table})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var logs bytes.Buffer
	report, doc, err := buildReport(logger.JSON(&logs, slog.LevelDebug), "event.bmd", data)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if doc.Message == nil || len(doc.Message.Messages) != 1 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	rel := report.Relocation
	if rel == nil || !rel.Opaque || rel.Patches != -1 || rel.Size != len(table) {
		t.Fatalf("relocation report: %+v", rel)
	}
	if !strings.Contains(logs.String(), "not delta encoded") {
		t.Fatalf("expected a debug entry, got %q", logs.String())
	}

	var out bytes.Buffer
	printReport(&out, report)
	if !strings.Contains(out.String(), "patches=unknown") {
		t.Fatalf("text report:\n%s", out.String())
	}
}

func TestBuildReportDeltaRelocations(t *testing.T) {
	t.Parallel()

	c := &message.Container{
		Messages:   []message.Message{&message.Dialog{Name: "MSG_000", Speaker: 0, Pages: []string{"a", "b"}}},
		ActorNames: []string{"Hero"},
	}
	data, err := c.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	report, _, err := buildReport(logger.Discard(), "event.bmd", data)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	// Entry offset, actor table pointer, two page pointers, one actor name.
	if rel := report.Relocation; rel == nil || rel.Opaque || rel.Patches != 5 {
		t.Fatalf("relocation report: %+v", rel)
	}
}
