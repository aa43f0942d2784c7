package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ThiagoRGoveia/building-metadata/internal/models"
)

// Writer serializes the aggregate to a single output file.
type Writer struct {
	outputPath string
	reporter   ProgressReporter
}

func NewWriter(outputPath string, reporter ProgressReporter) *Writer {
	if reporter == nil {
		reporter = noopReporter{}
	}
	return &Writer{outputPath: outputPath, reporter: reporter}
}

// Encode renders the aggregate as compact JSON without a trailing newline.
func Encode(aggregate models.Aggregate) ([]byte, error) {
	if aggregate.Buildings == nil {
		aggregate.Buildings = []models.Building{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(aggregate); err != nil {
		return nil, fmt.Errorf("failed to encode aggregate: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Write replaces the output file with the encoded aggregate. The content goes
// to a temporary file in the same directory first and is renamed into place,
// so the output is either the previous file or the complete new one. A
// symlinked output path is written through to its target, and an existing
// file keeps its permissions.
func (w *Writer) Write(aggregate models.Aggregate) ([]byte, error) {
	content, err := Encode(aggregate)
	if err != nil {
		return nil, err
	}

	w.reporter.Writing(w.outputPath)

	target := w.outputPath
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}
	mode := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to move output into %s: %w", target, err)
	}

	return content, nil
}
