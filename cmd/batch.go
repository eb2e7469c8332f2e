package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enviro-impact/internal/batch"
	"github.com/sells-group/enviro-impact/internal/report"
)

var (
	batchInput       string
	batchOutput      string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Estimate every facility listed in a CSV or XLSX file",
	Long: "Reads requests with the columns " + strings.Join(batch.Columns, ",") +
		" and estimates them concurrently. Rows that fail are reported alongside the results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		rows, err := batch.ReadFile(batchInput)
		if err != nil {
			return err
		}

		est, err := initEstimator(cfg)
		if err != nil {
			return err
		}

		outcomes, err := batch.Run(cmd.Context(), est, rows, cfg.Batch.Concurrency)
		if err != nil {
			return err
		}

		if err := writeBatchOutput(batchOutput, outcomes); err != nil {
			return err
		}
		return report.WriteBatchTable(cmd.OutOrStdout(), outcomes)
	},
}

// writeBatchOutput saves outcomes to path as XLSX or JSON by extension. An
// empty path writes nothing.
func writeBatchOutput(path string, outcomes []batch.Outcome) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
		if path == "" {
			return nil
		}
		return eris.Errorf("output file %q needs a .xlsx or .json extension", path)
	case ".xlsx":
		if err := report.WriteBatchXLSX(path, outcomes); err != nil {
			return err
		}
	case ".json":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		if err := report.WriteBatchJSON(f, outcomes); err != nil {
			_ = f.Close()
			return eris.Wrap(err, "write output file")
		}
		if err := f.Close(); err != nil {
			return eris.Wrap(err, "close output file")
		}
	default:
		return eris.Errorf("output file %q needs a .xlsx or .json extension", path)
	}

	zap.L().Info("batch output written", zap.String("path", path), zap.Int("rows", len(outcomes)))
	return nil
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "csv", "", "input file (.csv or .xlsx)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write results to a .xlsx or .json file")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel estimates (default from config)")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}
