package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spectral/internal/table"
)

var (
	filterInput  string
	filterOutput string
	filterColumn string
	filterMin    float64
	filterMax    float64
	filterKeep   []string
	filterDrop   []string
)

// filterCmd post-processes a merged artifact
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter rows of a merged line artifact",
	Long: `Reads a CSV artifact written by the get command, keeps only the rows
matching the given column criteria and writes the result. Numeric bounds
apply --min/--max to the column value; --keep and --drop match substrings.`,
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVar(&filterInput, "input", "", "artifact CSV to read (required)")
	filterCmd.Flags().StringVar(&filterOutput, "output", "", "destination CSV (required)")
	filterCmd.Flags().StringVar(&filterColumn, "column", "", "column to filter on (required)")
	filterCmd.Flags().Float64Var(&filterMin, "min", 0, "lower numeric bound")
	filterCmd.Flags().Float64Var(&filterMax, "max", 0, "upper numeric bound")
	filterCmd.Flags().StringArrayVar(&filterKeep, "keep", nil, "keep rows whose cell contains any of these (repeatable)")
	filterCmd.Flags().StringArrayVar(&filterDrop, "drop", nil, "drop rows whose cell contains any of these (repeatable)")
	_ = filterCmd.MarkFlagRequired("input")
	_ = filterCmd.MarkFlagRequired("output")
	_ = filterCmd.MarkFlagRequired("column")
}

func runFilter(cmd *cobra.Command, args []string) error {
	t, err := table.ReadCSV(filterInput)
	if err != nil {
		return err
	}
	if !t.HasColumn(filterColumn) {
		return fmt.Errorf("artifact has no column %q", filterColumn)
	}

	var min, max *float64
	if cmd.Flags().Changed("min") {
		min = &filterMin
	}
	if cmd.Flags().Changed("max") {
		max = &filterMax
	}
	if min != nil || max != nil {
		t = t.FilterByRange(filterColumn, min, max)
	}
	if len(filterKeep) > 0 {
		t = t.FilterContaining(filterColumn, filterKeep)
	}
	if len(filterDrop) > 0 {
		t = t.FilterNotContaining(filterColumn, filterDrop)
	}

	if err := t.WriteCSV(filterOutput); err != nil {
		return err
	}
	fmt.Printf("%d rows written to %s\n", t.NumRows(), filterOutput)
	return nil
}
