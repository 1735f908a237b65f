package main

import (
	"fmt"
	"io"
	"os"

	"github.com/deptflow/internal/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every habit and log",
	Long: `Export all habits joined with their logs. Habits without logs appear once
with an empty date and completed value.

Examples:
  deptflow export                         # CSV to stdout
  deptflow export -f json -o habits.json
  deptflow export -f yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, err := service.ExportContentType(exportFormat); err != nil {
			return err
		}
		tracker, err := openTracker()
		if err != nil {
			return err
		}
		rows, err := tracker.Logs.ExportRows()
		if err != nil {
			return fmt.Errorf("failed to load export rows: %w", err)
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOutput, err)
			}
			defer f.Close()
			w = f
		}

		if err := service.WriteExport(w, rows, exportFormat); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		if exportOutput != "" && exportOutput != "-" {
			color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "✓ Exported %d rows to %s\n", len(rows), exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", service.ExportCSV, "csv, json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
