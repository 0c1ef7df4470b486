package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/flowkit/internal/document"
	"github.com/samcharles93/flowkit/internal/logger"
	"github.com/samcharles93/flowkit/pkg/chunk"
	"github.com/samcharles93/flowkit/pkg/message"
	"github.com/samcharles93/flowkit/pkg/script"
)

type sectionReport struct {
	Name         string `json:"name"`
	ElementSize  int32  `json:"element_size"`
	ElementCount int32  `json:"element_count"`
	DataOffset   int32  `json:"data_offset"`
}

// relocReport describes the relocation table. Tables that do not decode as
// the delta format are reported as opaque with Patches set to -1.
type relocReport struct {
	Offset    int  `json:"offset"`
	Size      int  `json:"size"`
	Relocated bool `json:"relocated"`
	Patches   int  `json:"patches"`
	Opaque    bool `json:"opaque,omitempty"`
}

type entryReport struct {
	Kind   string `json:"kind"`
	Offset int32  `json:"offset"`
}

type inspectReport struct {
	Path       string          `json:"path"`
	Tag        string          `json:"tag"`
	Kind       int16           `json:"kind"`
	UserID     int16           `json:"user_id"`
	Length     int32           `json:"length"`
	Sections   []sectionReport `json:"sections,omitempty"`
	Relocation *relocReport    `json:"relocation,omitempty"`
	Entries    []entryReport   `json:"entries,omitempty"`
	ActorCount int             `json:"actor_count,omitempty"`
	Summary    string          `json:"summary"`
}

var scriptSectionNames = map[chunk.SectionType]string{
	script.SectionProcedures: "procedures",
	script.SectionJumps:      "jumps",
	script.SectionOpcodes:    "opcodes",
	script.SectionMessages:   "messages",
	script.SectionStrings:    "strings",
}

func inspectCmd() *cli.Command {
	var (
		inPath string
		asJSON bool
		disasm bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show the header, layout and contents summary of a chunk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "in",
				Aliases:     []string{"i"},
				Usage:       "chunk file to inspect",
				Destination: &inPath,
				Required:    true,
			},
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "disasm", Usage: "list labels and instructions of script chunks", Destination: &disasm},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			f, err := chunk.Open(inPath)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			report, doc, err := buildReport(log, inPath, f.Data)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", inPath, err)
			}
			log.Debug("inspected chunk", "path", inPath, "tag", report.Tag, "bytes", len(f.Data))

			if asJSON {
				enc := json.NewEncoder(cmd.Root().Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd.Root().Writer, report)
			if disasm && doc.Script != nil {
				printDisassembly(cmd.Root().Writer, doc.Script)
			}
			return nil
		},
	}
}

func buildReport(log logger.Logger, path string, data []byte) (*inspectReport, *document.Document, error) {
	doc, err := document.Decode(data)
	if err != nil {
		return nil, nil, err
	}

	report := &inspectReport{Path: path, Tag: doc.Tag, Summary: doc.Summary()}
	switch doc.Tag {
	case script.Tag:
		hdr, dir, _, err := script.ReadDirectory(data)
		if err != nil {
			return nil, nil, err
		}
		setHeader(report, hdr)
		for _, s := range dir {
			report.Sections = append(report.Sections, sectionReport{
				Name:         scriptSectionNames[s.Type],
				ElementSize:  s.ElementSize,
				ElementCount: s.ElementCount,
				DataOffset:   s.DataOffset,
			})
		}
	case message.Tag:
		l, err := message.ReadLayout(data)
		if err != nil {
			return nil, nil, err
		}
		setHeader(report, l.Header)
		report.Relocation = &relocReport{
			Offset:    l.RelocOffset,
			Size:      len(l.RelocTable),
			Relocated: l.Relocated,
		}
		if patches, err := l.Patches(nil); err != nil {
			log.Debug("relocation table is not delta encoded", "path", path, "error", err)
			report.Relocation.Patches = -1
			report.Relocation.Opaque = true
		} else {
			report.Relocation.Patches = len(patches)
		}
		for _, e := range l.Entries {
			report.Entries = append(report.Entries, entryReport{Kind: e.Kind.String(), Offset: e.Offset})
		}
		report.ActorCount = l.ActorCount
	}
	return report, doc, nil
}

func setHeader(r *inspectReport, h chunk.Header) {
	r.Kind = h.Kind
	r.UserID = h.UserID
	r.Length = h.Length
}

func printReport(w io.Writer, r *inspectReport) {
	_, _ = fmt.Fprintf(w, "file:    %s\n", r.Path)
	_, _ = fmt.Fprintf(w, "tag:     %s (kind %d, user id %d)\n", r.Tag, r.Kind, r.UserID)
	_, _ = fmt.Fprintf(w, "length:  %d bytes\n", r.Length)
	_, _ = fmt.Fprintf(w, "summary: %s\n", r.Summary)

	if len(r.Sections) > 0 {
		_, _ = fmt.Fprintln(w, "\nsections:")
		for _, s := range r.Sections {
			_, _ = fmt.Fprintf(w, "  %-10s offset=0x%04x size=%-2d count=%d\n", s.Name, s.DataOffset, s.ElementSize, s.ElementCount)
		}
	}
	if rel := r.Relocation; rel != nil {
		patches := strconv.Itoa(rel.Patches)
		if rel.Opaque {
			patches = "unknown"
		}
		_, _ = fmt.Fprintf(w, "\nrelocation: offset=0x%04x size=%d patches=%s relocated=%t\n",
			rel.Offset, rel.Size, patches, rel.Relocated)
	}
	if len(r.Entries) > 0 {
		_, _ = fmt.Fprintln(w, "\nmessages:")
		for i, e := range r.Entries {
			_, _ = fmt.Fprintf(w, "  %3d %-9s offset=0x%04x\n", i, e.Kind, e.Offset)
		}
		_, _ = fmt.Fprintf(w, "actors:  %d\n", r.ActorCount)
	}
}

func printDisassembly(w io.Writer, c *script.Container) {
	labels := make(map[int][]string)
	for _, l := range c.Procedures {
		labels[l.Index] = append(labels[l.Index], l.Name+":")
	}
	for _, l := range c.Jumps {
		labels[l.Index] = append(labels[l.Index], "  "+l.Name+":")
	}

	_, _ = fmt.Fprintln(w, "\ncode:")
	for i, in := range c.Instructions {
		for _, name := range labels[i] {
			_, _ = fmt.Fprintln(w, name)
		}
		_, _ = fmt.Fprintf(w, "  %5d  %s\n", i, in)
	}
	for _, name := range labels[script.UnresolvedIndex] {
		_, _ = fmt.Fprintf(w, "%s (unresolved)\n", name)
	}
}
