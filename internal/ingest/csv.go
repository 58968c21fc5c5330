// Package ingest reads POS export files (CSV and XLSX) into raw batches for
// the pipeline. It makes no normalization decisions: cells pass through as
// written, minus encoding artifacts.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/retailkit/poscanon/internal/pipeline"
)

// ErrEmptyFile reports a file with no header row.
var ErrEmptyFile = errors.New("no header row found")

// ReadCSV reads a CSV export into a raw batch. The first non-empty record is
// the header; ragged rows are tolerated (missing cells stay absent from the
// RawRow), and invalid UTF-8 is replaced rather than rejected.
func ReadCSV(r io.Reader) (pipeline.Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("read csv: %w", err)
	}
	data = sanitizeUTF8(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("parse csv: %w", err)
	}

	return buildBatch(records)
}

// buildBatch assembles a batch from tabular records, shared by the CSV and
// XLSX readers.
func buildBatch(records [][]string) (pipeline.Batch, error) {
	start := 0
	for start < len(records) && isEmptyRow(records[start]) {
		start++
	}
	if start == len(records) {
		return pipeline.Batch{}, ErrEmptyFile
	}

	header := records[start]
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.TrimSpace(col)
	}

	batch := pipeline.Batch{Columns: columns}
	for _, record := range records[start+1:] {
		if isEmptyRow(record) {
			continue
		}
		row := make(pipeline.RawRow, len(columns))
		for i, col := range columns {
			if col == "" || i >= len(record) {
				continue
			}
			row[col] = record[i]
		}
		batch.Rows = append(batch.Rows, row)
	}

	return batch, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune so
// a half-broken export cannot poison downstream string handling.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
