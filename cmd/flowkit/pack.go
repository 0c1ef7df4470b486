package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/flowkit/internal/document"
	"github.com/samcharles93/flowkit/internal/logger"
	"github.com/samcharles93/flowkit/pkg/message"
	"github.com/samcharles93/flowkit/pkg/script"
)

// chunkExt is the conventional file extension per chunk tag.
var chunkExt = map[string]string{
	script.Tag:  ".bf",
	message.Tag: ".bmd",
}

func packCmd() *cli.Command {
	var (
		inPath          string
		outPath         string
		kind            string
		allowUnresolved bool
	)

	return &cli.Command{
		Name:  "pack",
		Usage: "Encode a JSON document into a chunk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "in",
				Aliases:     []string{"i"},
				Usage:       "JSON document to encode (- for stdin)",
				Destination: &inPath,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output chunk path (- for stdout; default: input name with .bf or .bmd)",
				Destination: &outPath,
			},
			&cli.StringFlag{
				Name:        "kind",
				Usage:       "document kind (script, message); required for bare containers",
				Destination: &kind,
			},
			&cli.BoolFlag{
				Name:        "allow-unresolved",
				Usage:       "write labels that target no instruction with offset 0 instead of failing",
				Destination: &allowUnresolved,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyPackConfig(cmd, cfg, &allowUnresolved)

			var tag string
			if kind != "" {
				var err error
				if tag, err = document.TagForKind(kind); err != nil {
					return err
				}
			}

			in, err := openInput(inPath, os.Stdin)
			if err != nil {
				return err
			}
			doc, err := document.Read(in, tag)
			_ = in.Close()
			if err != nil {
				return fmt.Errorf("pack %s: %w", inPath, err)
			}
			chunkData, err := doc.Encode(document.Options{
				AllowUnresolvedLabels: allowUnresolved,
				Logger:                log,
			})
			if err != nil {
				return fmt.Errorf("pack %s: %w", inPath, err)
			}

			out, err := resolveOut(inPath, outPath, chunkExt[doc.Tag])
			if err != nil {
				return err
			}
			if err := writeOutput(out, chunkData, cmd.Root().Writer); err != nil {
				return err
			}
			log.Info("packed chunk", "in", inPath, "out", out, "bytes", len(chunkData), "summary", doc.Summary())
			return nil
		},
	}
}
