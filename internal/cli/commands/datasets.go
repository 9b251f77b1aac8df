package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/macrodash/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewDatasetsCommand creates the datasets command.
func NewDatasetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "datasets",
		Aliases: []string{"ls"},
		Short:   "List datasets of the configured source",
		Long: `List the datasets of the configured source with their frequency and
covered periods. Each dataset is a worksheet, a CSV file, a JSON-stat
document or a warehouse table, depending on source.type.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List datasets
  macrodash datasets

  # List datasets of another workbook as JSON
  macrodash datasets --source other.xlsx -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDatasets(cmd)
		},
	}
}

func runDatasets(cmd *cobra.Command) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	return runDatasetsWith(cmd.Context(), cc)
}

func runDatasetsWith(ctx context.Context, cc *CommandContext) error {
	infos, err := cc.Engine.Datasets(ctx)
	if err != nil {
		return err
	}

	out := output.DatasetsOutput{Datasets: make([]output.DatasetInfo, 0, len(infos))}
	for _, info := range infos {
		di := output.DatasetInfo{ID: info.ID, Source: info.Source}
		ds, err := cc.Engine.Dataset(ctx, info.ID)
		if err != nil {
			// One malformed sheet should not hide the others.
			di.Error = err.Error()
			out.Datasets = append(out.Datasets, di)
			continue
		}
		periods := ds.Periods()
		di.Frequency = string(ds.Frequency)
		di.Periods = len(periods)
		di.Groups = len(ds.Groups())
		if len(periods) > 0 {
			di.First = periods[0].Label()
			di.Last = periods[len(periods)-1].Label()
		}
		out.Datasets = append(out.Datasets, di)
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Datasets (%d total)", len(out.Datasets)))
	if len(out.Datasets) == 0 {
		r.Muted("No datasets found in " + cc.Cfg.Source.Path)
		return nil
	}
	rows := make([][]string, 0, len(out.Datasets))
	for _, d := range out.Datasets {
		if d.Error != "" {
			rows = append(rows, []string{d.ID, "", "", "", "", "error: " + d.Error})
			continue
		}
		rows = append(rows, []string{d.ID, d.Frequency, strconv.Itoa(d.Periods), d.First, d.Last, strconv.Itoa(d.Groups)})
	}
	r.Table([]string{"Dataset", "Frequency", "Periods", "First", "Last", "Groups"}, rows)
	return nil
}
