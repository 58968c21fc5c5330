package ingest

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"order_id,location_id,total",
		"A1,loc_001,10.50",
		"A2,loc_001,3.00",
	}, "\n")

	batch, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	want := []string{"order_id", "location_id", "total"}
	if len(batch.Columns) != len(want) {
		t.Fatalf("got columns %v, want %v", batch.Columns, want)
	}
	for i, col := range want {
		if batch.Columns[i] != col {
			t.Errorf("column %d = %q, want %q", i, batch.Columns[i], col)
		}
	}

	if len(batch.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(batch.Rows))
	}
	if batch.Rows[0]["order_id"] != "A1" || batch.Rows[1]["total"] != "3.00" {
		t.Errorf("unexpected row contents: %v", batch.Rows)
	}
}

func TestReadCSV_SkipsBlankAndRaggedRows(t *testing.T) {
	input := strings.Join([]string{
		"",
		"order_id,location_id,total",
		"A1,loc_001,10.50",
		",,",
		"A2,loc_001", // missing trailing cell
		"A3,loc_001,1.00,extra",
	}, "\n")

	batch, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if len(batch.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(batch.Rows))
	}
	if _, ok := batch.Rows[1]["total"]; ok {
		t.Error("ragged row should not carry a value for the missing cell")
	}
	if batch.Rows[2]["total"] != "1.00" {
		t.Errorf("overlong row total = %q, want 1.00", batch.Rows[2]["total"])
	}
}

func TestReadCSV_InvalidUTF8(t *testing.T) {
	input := "order_id,product\nA1,caf\xe9 latte\n"

	batch, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	got := batch.Rows[0]["product"]
	if !strings.Contains(got, "caf") || !strings.Contains(got, "latte") {
		t.Errorf("product = %q, want sanitized cell preserving valid runes", got)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	for _, input := range []string{"", "\n\n", ",,\n,,"} {
		if _, err := ReadCSV(strings.NewReader(input)); !errors.Is(err, ErrEmptyFile) {
			t.Errorf("ReadCSV(%q) error = %v, want ErrEmptyFile", input, err)
		}
	}
}

func TestReadFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")

	f := excelize.NewFile()
	rows := [][]any{
		{"order_id", "location_id", "total"},
		{"A1", "loc_001", 10.5},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	batch, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if len(batch.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(batch.Rows))
	}
	if batch.Rows[0]["order_id"] != "A1" {
		t.Errorf("order_id = %q, want A1", batch.Rows[0]["order_id"])
	}
	if batch.Rows[0]["total"] != "10.5" {
		t.Errorf("total = %q, want 10.5", batch.Rows[0]["total"])
	}
}

func TestRead_UnsupportedExtension(t *testing.T) {
	_, err := Read("export.pdf", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Errorf("Read(pdf) error = %v, want unsupported file type", err)
	}
}
