package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retailkit/poscanon/internal/pipeline"
)

// SupportedExtensions lists the file extensions Read accepts, lowercase with
// the leading dot.
var SupportedExtensions = []string{".csv", ".xlsx"}

// Read dispatches on the file extension of name and parses the stream into a
// raw batch.
func Read(name string, r io.Reader) (pipeline.Batch, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return pipeline.Batch{}, fmt.Errorf("unsupported file type %q: want one of %s",
			filepath.Ext(name), strings.Join(SupportedExtensions, ", "))
	}
}

// ReadFile opens and parses a file from disk.
func ReadFile(path string) (pipeline.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Read(path, f)
}
