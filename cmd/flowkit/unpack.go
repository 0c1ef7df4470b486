package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/flowkit/internal/document"
	"github.com/samcharles93/flowkit/internal/logger"
	"github.com/samcharles93/flowkit/pkg/chunk"
)

func unpackCmd() *cli.Command {
	var inPath, outPath string

	return &cli.Command{
		Name:  "unpack",
		Usage: "Decode a chunk into an editable JSON document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "in",
				Aliases:     []string{"i"},
				Usage:       "chunk file to decode (- for stdin)",
				Destination: &inPath,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output JSON path (- for stdout; default: input name with .json)",
				Destination: &outPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			doc, err := unpackFile(inPath)
			if err != nil {
				return fmt.Errorf("unpack %s: %w", inPath, err)
			}
			out, err := resolveOut(inPath, outPath, ".json")
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := doc.Write(&buf); err != nil {
				return err
			}
			if err := writeOutput(out, buf.Bytes(), cmd.Root().Writer); err != nil {
				return err
			}
			log.Info("unpacked chunk", "in", inPath, "out", out, "summary", doc.Summary())
			return nil
		},
	}
}

func unpackFile(path string) (*document.Document, error) {
	if path == stdio {
		data, err := readInput(path, os.Stdin)
		if err != nil {
			return nil, err
		}
		return document.Decode(data)
	}
	f, err := chunk.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return document.Decode(f.Data)
}
