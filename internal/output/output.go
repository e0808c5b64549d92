// Package output writes segmented results to disk, one JSON document per
// input file.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/filinglab/riskseg/internal/segment"
)

// Writer persists segment.Output documents under a base directory.
type Writer struct {
	dir string
}

// NewWriter ensures dir exists and returns a writer for it.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// PathFor returns the output path for an input file.
func (w *Writer) PathFor(inputPath string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(w.dir, stem+".segments.json")
}

// Write marshals out deterministically (struct field order, trailing
// newline) and writes it atomically via a temp-file rename, so a crashed
// run never leaves a half-written result.
func (w *Writer) Write(inputPath string, out *segment.Output) (string, error) {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')

	dest := w.PathFor(inputPath)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalize output: %w", err)
	}
	return dest, nil
}
