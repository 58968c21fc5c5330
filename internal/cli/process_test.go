package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/retailkit/poscanon/internal/pipeline"
)

func TestResultPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"export.csv", "export.result.json"},
		{"data/march.xlsx", "data/march.result.json"},
		{"noext", "noext.result.json"},
	}
	for _, tt := range tests {
		if got := resultPath(tt.in); got != tt.want {
			t.Errorf("resultPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunProcess(t *testing.T) {
	dir := t.TempDir()

	locations := filepath.Join(dir, "locations.yaml")
	if err := os.WriteFile(locations, []byte(`
locations:
  - id: loc_001
    name: Columbus
    timezone: America/New_York
`), 0o644); err != nil {
		t.Fatal(err)
	}

	input := filepath.Join(dir, "export.csv")
	csv := "order_id,timestamp,location_id,product,quantity,unit_price,total\n" +
		"A1,2024-03-15 10:30:00,loc_001,Latte,1,4.50,4.50\n"
	if err := os.WriteFile(input, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	locationsPath = locations
	outputPath = ""
	rejectOnly = false
	t.Cleanup(func() {
		locationsPath = "locations.yaml"
		outputPath = ""
	})

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	if err := runProcess(cmd, []string{input}); err != nil {
		t.Fatalf("runProcess: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "export.result.json"))
	if err != nil {
		t.Fatalf("read result file: %v", err)
	}

	var result pipeline.Result
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Errorf("got %d transactions, want 1", len(result.Transactions))
	}
	if result.Transactions[0].Product != "latte" {
		t.Errorf("product = %q, want latte", result.Transactions[0].Product)
	}
}

func TestRunProcess_OutFlagWithMultipleInputs(t *testing.T) {
	outputPath = "result.json"
	t.Cleanup(func() { outputPath = "" })

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	if err := runProcess(cmd, []string{"a.csv", "b.csv"}); err == nil {
		t.Error("runProcess with --out and 2 inputs succeeded, want error")
	}
}
