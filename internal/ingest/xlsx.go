package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/retailkit/poscanon/internal/pipeline"
)

// ReadXLSX reads the first sheet of an Excel workbook into a raw batch. Rows
// follow the same header and empty-row rules as ReadCSV.
func ReadXLSX(r io.Reader) (pipeline.Batch, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return pipeline.Batch{}, ErrEmptyFile
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("read xlsx sheet %q: %w", sheets[0], err)
	}

	return buildBatch(records)
}
