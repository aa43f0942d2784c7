package ingestion

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/ThiagoRGoveia/building-metadata/internal/models"
	"github.com/ThiagoRGoveia/building-metadata/internal/parser"
	"github.com/ThiagoRGoveia/building-metadata/pkg/fsutil"
)

// Processor defines the interface for file discovery and per-file loading.
type Processor interface {
	ScanForFiles(rootPath string) iter.Seq2[models.FileInfo, error]
	LoadBuilding(fileInfo models.FileInfo) (models.Building, error)
}

// FileProcessor discovers qualifying metadata files in a flat directory and
// turns each one into a projected building record.
type FileProcessor struct {
	extension string
}

// NewFileProcessor creates a FileProcessor accepting files whose extension is
// exactly extension (case-sensitive, leading dot included).
func NewFileProcessor(extension string) *FileProcessor {
	return &FileProcessor{
		extension: extension,
	}
}

// ScanForFiles lists rootPath once per iteration and yields every regular file
// whose extension matches. Subdirectories are not descended into. Entries are
// yielded in lexical file name order. A listing failure is yielded as a single
// error and ends the sequence.
func (fp *FileProcessor) ScanForFiles(rootPath string) iter.Seq2[models.FileInfo, error] {
	return func(yield func(models.FileInfo, error) bool) {
		entries, err := os.ReadDir(rootPath)
		if err != nil {
			yield(models.FileInfo{}, fmt.Errorf("error listing directory %s: %w", rootPath, err))
			return
		}

		for _, entry := range entries {
			if !fsutil.HasExtension(rootPath, entry.Name(), fp.extension) {
				continue
			}

			path := filepath.Join(rootPath, entry.Name())
			if !yield(models.FileInfo{Path: path, Name: entry.Name()}, nil) {
				return
			}
		}
	}
}

// LoadBuilding reads and parses one qualifying file and projects it.
func (fp *FileProcessor) LoadBuilding(fileInfo models.FileInfo) (models.Building, error) {
	record, err := parser.LoadRecord(fileInfo.Path)
	if err != nil {
		return models.Building{}, err
	}

	return parser.ProjectBuilding(fileInfo.Path, record)
}
