package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const envFlowkitOutDir = "FLOWKIT_OUT_DIR"

// stdio names stdin or stdout in --in and --out.
const stdio = "-"

// resolveOut returns the output path for in. An explicit outFlag wins;
// otherwise the input's base name with its extension replaced by ext is
// placed in $FLOWKIT_OUT_DIR, or next to the input.
func resolveOut(in, outFlag, ext string) (string, error) {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag == stdio {
		return stdio, nil
	}
	if outFlag != "" {
		outPath := filepath.Clean(outFlag)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return "", err
		}
		return outPath, nil
	}
	if in == stdio || in == "" {
		return stdio, nil
	}

	base := filepath.Base(filepath.Clean(in))
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid input path: %q", in)
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		name = base
	}
	if filepath.Ext(name) != ext {
		name += ext
	}

	outDir := strings.TrimSpace(os.Getenv(envFlowkitOutDir))
	if outDir == "" {
		outDir = filepath.Dir(in)
	}
	outPath := filepath.Join(outDir, name)
	if outPath == filepath.Clean(in) {
		return "", fmt.Errorf("output would overwrite input %q; pass --out", in)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	return outPath, nil
}

// openInput opens path for reading, or returns stdin for "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == stdio {
		return io.NopCloser(stdin), nil
	}
	return os.Open(path)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == stdio {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdio {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
