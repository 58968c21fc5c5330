package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/retailkit/poscanon/internal/config"
	"github.com/retailkit/poscanon/internal/ingest"
	"github.com/retailkit/poscanon/internal/pipeline"
)

var (
	outputPath string
	rejectOnly bool
)

var processCmd = &cobra.Command{
	Use:   "process <file>...",
	Short: "Process one or more POS export files",
	Long: `Process reads each export file, runs the normalization and exception
pipeline, and writes the run result as JSON.

By default each result is written next to its input as <name>.result.json.
With a single input, --out overrides the destination; --out - writes to
stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&outputPath, "out", "o", "",
		"output path for the result JSON (single input only; - for stdout)")
	processCmd.Flags().BoolVar(&rejectOnly, "exceptions-only", false,
		"omit transactions from the output, keep exceptions and rejected rows")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if outputPath != "" && len(args) > 1 {
		return fmt.Errorf("--out only applies to a single input file, got %d", len(args))
	}

	locations, err := config.LoadLocations(locationsPath)
	if err != nil {
		return err
	}
	thresholds := locations.MergeThresholds(pipeline.DefaultThresholds())

	p, err := pipeline.New(locations.Locations, thresholds)
	if err != nil {
		return err
	}

	for _, path := range args {
		if err := processFile(cmd, p, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func processFile(cmd *cobra.Command, p *pipeline.Pipeline, path string) error {
	batch, err := ingest.ReadFile(path)
	if err != nil {
		return err
	}

	result, err := p.Run(cmd.Context(), batch)
	if err != nil {
		return err
	}

	if rejectOnly {
		result.Transactions = nil
	}

	slog.Info("processed file",
		"file", path,
		"run_id", result.RunID,
		"accepted", result.Summary.Accepted,
		"rejected", result.Summary.Rejected,
		"exceptions", len(result.Exceptions),
	)

	return writeResult(path, result)
}

func writeResult(inputPath string, result *pipeline.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	data = append(data, '\n')

	out := outputPath
	if out == "" {
		out = resultPath(inputPath)
	}
	if out == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// resultPath maps export.csv to export.result.json. A single unflagged input
// still goes to a file so results survive the terminal.
func resultPath(inputPath string) string {
	base := inputPath
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + ".result.json"
}
