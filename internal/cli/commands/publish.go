package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/macrodash/internal/cli/output"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/spf13/cobra"
)

// NewPublishCommand creates the publish command.
func NewPublishCommand() *cobra.Command {
	var table string
	var all bool

	cmd := &cobra.Command{
		Use:   "publish [dataset]",
		Short: "Publish long-form observations to the warehouse",
		Long: `Write the observations of a dataset to the configured warehouse target
in long form (year, quarter, month, group_name, indicator, value). Missing
values are skipped. Publishing replaces the rows of the table, so running
it twice leaves one copy of the data.

Each run is recorded in the state database; see 'macrodash history'.`,
		Example: `  # One dataset into macro_quarterly
  macrodash publish quarterly

  # Custom table name
  macrodash publish quarterly --table gdp_facts

  # Every dataset
  macrodash publish --all --database warehouse.duckdb`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("give a dataset or --all")
			}
			if all && table != "" {
				return fmt.Errorf("--table cannot be combined with --all")
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ids := args
			if all {
				infos, err := cc.Engine.Datasets(cmd.Context())
				if err != nil {
					return err
				}
				ids = make([]string, len(infos))
				for i, info := range infos {
					ids[i] = info.ID
				}
			}

			var runs []*core.PublishRun
			var errs []error
			for _, id := range ids {
				run, err := cc.Engine.Publish(cmd.Context(), id, table)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", id, err))
				}
				if run != nil {
					runs = append(runs, run)
				}
			}

			if err := renderPublishes(cc.Renderer, runs); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Warehouse table name (default: macro_<dataset>)")
	cmd.Flags().BoolVar(&all, "all", false, "Publish every dataset of the source")
	return cmd
}

func publishInfo(run *core.PublishRun) output.PublishInfo {
	return output.PublishInfo{
		ID:          run.ID,
		Dataset:     run.DatasetID,
		Table:       run.Table,
		Status:      string(run.Status),
		Rows:        run.Rows,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Error,
	}
}

func renderPublishes(r *output.Renderer, runs []*core.PublishRun) error {
	infos := make([]output.PublishInfo, len(runs))
	for i, run := range runs {
		infos[i] = publishInfo(run)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(infos)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Published"))
		r.Println("")
		for _, p := range infos {
			r.Println(output.FormatHeader(2, p.Dataset))
			r.Println(output.FormatKeyValue("Table", p.Table))
			r.Println(output.FormatKeyValue("Status", p.Status))
			r.Println(output.FormatKeyValue("Rows", output.FormatNumber(float64(p.Rows))))
			if p.Error != "" {
				r.Println(output.FormatKeyValue("Error", p.Error))
			}
			r.Println("")
		}
	default:
		r.Header(1, "Published")
		for _, p := range infos {
			detail := fmt.Sprintf("%s  %s rows", p.Table, output.FormatNumber(float64(p.Rows)))
			if p.Error != "" {
				detail = p.Error
			}
			r.StatusLine(p.Dataset, p.Status, detail)
		}
	}
	return nil
}
