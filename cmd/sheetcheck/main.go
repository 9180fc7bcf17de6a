// Package main provides the CLI entry point for offline workbook checks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sheetcheck/sheetcheck/internal/config"
	"github.com/sheetcheck/sheetcheck/internal/core"
)

var (
	reportPath string
	threshold  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sheetcheck [workbook]",
		Short: "Validate a tabular workbook without running the server",
		Long: `sheetcheck infers column types for a workbook (.xlsx, .xlsm, or .csv),
flags cells that violate the inferred types, detects exact-duplicate
rows, and prints the findings. With --report it also writes the
annotated Excel report.`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&reportPath, "report", "r", "", "Write the annotated report to this path")
	rootCmd.Flags().Float64Var(&threshold, "threshold", core.DefaultAcceptanceThreshold,
		"Type inference acceptance threshold in (0, 1]")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}

	cfg := &config.Config{}
	cfg.Inference.AcceptanceThreshold = threshold
	service := core.NewService(cfg)
	payload, err := service.Upload(context.Background(), inputPath, data)
	if err != nil {
		return err
	}

	fmt.Printf("Sheet %q: %d rows, %d columns\n", payload.SheetName, len(payload.Rows), len(payload.Columns))
	for _, col := range payload.Columns {
		fmt.Printf("  %-24s %s\n", col.Name, col.DetectedType)
	}

	if len(payload.Errors) == 0 {
		fmt.Println("No invalid cells.")
	} else {
		fmt.Printf("%d invalid cells:\n", len(payload.Errors))
		for _, cellErr := range payload.Errors {
			fmt.Printf("  row %d, %s: %s\n", cellErr.RowID, cellErr.Column, cellErr.Message)
		}
	}

	if len(payload.DuplicateGroups) == 0 {
		fmt.Println("No duplicate rows.")
	} else {
		fmt.Printf("%d duplicate groups:\n", len(payload.DuplicateGroups))
		for i, group := range payload.DuplicateGroups {
			fmt.Printf("  group %d: rows %v\n", i+1, []int(group))
		}
	}

	if reportPath != "" {
		report, err := core.BuildReport(payload.Columns, payload.Rows, payload.Errors, payload.DuplicateGroups)
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportPath, report, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportPath)
	}

	return nil
}
