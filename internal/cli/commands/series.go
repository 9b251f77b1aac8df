package commands

import (
	"github.com/leapstack-labs/macrodash/internal/cli/output"
	"github.com/leapstack-labs/macrodash/internal/export"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/spf13/cobra"
)

// NewSeriesCommand creates the series command.
func NewSeriesCommand() *cobra.Command {
	flags := &seriesFlags{}
	var limit int

	cmd := &cobra.Command{
		Use:   "series <dataset>",
		Short: "Show a period-indexed series table",
		Long: `Show the indicators of one group as a table indexed by period label,
sorted chronologically. Missing values are shown as empty cells.

Without --indicator every indicator of the group is shown, in source order.`,
		Example: `  # Whole group
  macrodash series quarterly --group GDP

  # Selected indicators over a range
  macrodash series quarterly -g GDP -i Real,Nominal --from 2020 --to 2022-Q2

  # First 20 rows as JSON
  macrodash series monthly -g Prices --limit 20 -o json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			tbl, err := selectSeries(cmd.Context(), cc, args[0], flags)
			if err != nil {
				return err
			}
			if limit > 0 && limit < tbl.Len() {
				tbl = head(tbl, limit)
			}
			return renderSeries(cc.Renderer, tbl)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the first N periods (0 = all)")
	return cmd
}

func head(t *core.PeriodIndexedTable, n int) *core.PeriodIndexedTable {
	out := *t
	out.Periods = t.Periods[:n]
	out.Values = t.Values[:n]
	return &out
}

func renderSeries(r *output.Renderer, t *core.PeriodIndexedTable) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(export.NewDocument(t))
	}

	r.Header(1, t.Group+" ("+string(t.Frequency)+")")
	if t.Len() == 0 {
		r.Muted("No periods in range")
		return nil
	}

	header := append([]string{export.PeriodColumn}, t.Indicators...)
	rows := make([][]string, t.Len())
	for i, p := range t.Periods {
		row := make([]string, 0, len(header))
		row = append(row, p.Label())
		for _, v := range t.Values[i] {
			if v.Valid {
				row = append(row, output.FormatNumber(v.Float))
			} else {
				row = append(row, "")
			}
		}
		rows[i] = row
	}
	r.Table(header, rows)
	return nil
}
