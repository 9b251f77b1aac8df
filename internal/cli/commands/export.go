package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/leapstack-labs/macrodash/internal/export"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/spf13/cobra"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	seriesFlags
	Out    string
	Format string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <dataset>",
		Short: "Export series to CSV, JSON or XLSX",
		Long: `Export a period-indexed series table. The format follows the --out
extension unless --format is given. Missing values are written as empty
cells (CSV, XLSX) or null (JSON).

Without --group every group is exported to one XLSX workbook with a sheet
per group.`,
		Example: `  # One group to CSV
  macrodash export quarterly -g GDP --out gdp.csv

  # JSON to stdout
  macrodash export quarterly -g GDP --format json

  # Whole dataset, one sheet per group
  macrodash export quarterly --out quarterly.xlsx`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], opts)
		},
	}

	opts.register(cmd, false)
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&opts.Format, "format", "", "Output format (csv|json|xlsx)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "json", "xlsx"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runExport(cmd *cobra.Command, datasetID string, opts *ExportOptions) error {
	format, err := exportFormat(opts)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx := cmd.Context()

	if opts.Group == "" {
		if format != export.FormatXLSX || opts.Out == "" {
			return fmt.Errorf("exporting every group needs an .xlsx --out file; use --group for %s", format)
		}
		tables, err := allGroups(ctx, cc, datasetID, &opts.seriesFlags)
		if err != nil {
			return err
		}
		if err := export.SaveXLSXWorkbook(opts.Out, tables); err != nil {
			return err
		}
		cc.Renderer.Success(fmt.Sprintf("Exported %d groups of %s to %s", len(tables), datasetID, opts.Out))
		return nil
	}

	tbl, err := selectSeries(ctx, cc, datasetID, &opts.seriesFlags)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.Out, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := export.Write(w, tbl, format); err != nil {
		return err
	}
	if opts.Out != "" {
		cc.Renderer.Success(fmt.Sprintf("Exported %d periods of %s to %s", tbl.Len(), tbl.Group, opts.Out))
	}
	return nil
}

func exportFormat(opts *ExportOptions) (export.Format, error) {
	switch {
	case opts.Format != "":
		return export.FormatFromPath("." + opts.Format)
	case opts.Out != "":
		return export.FormatFromPath(opts.Out)
	default:
		return export.FormatCSV, nil
	}
}

// allGroups builds the series of every group of a dataset, filtered by f.
func allGroups(ctx context.Context, cc *CommandContext, datasetID string, f *seriesFlags) ([]*core.PeriodIndexedTable, error) {
	ds, err := cc.Engine.Dataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	var tables []*core.PeriodIndexedTable
	for _, g := range ds.Groups() {
		sel := *f
		sel.Group = g
		sel.Indicators = nil
		tbl, err := selectSeries(ctx, cc, datasetID, &sel)
		if err != nil {
			return nil, err
		}
		tables = append(tables, tbl)
	}
	return tables, nil
}
