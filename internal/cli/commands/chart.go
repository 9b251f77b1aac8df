package commands

import (
	"fmt"

	"github.com/leapstack-labs/macrodash/internal/chart"
	"github.com/spf13/cobra"
)

// NewChartCommand creates the chart command.
func NewChartCommand() *cobra.Command {
	flags := &seriesFlags{}
	var out, title string

	cmd := &cobra.Command{
		Use:   "chart <dataset>",
		Short: "Render a line chart of a series",
		Long: `Render selected indicators as a line chart, one line per indicator on a
period axis. Missing values break the line. The image format follows the
--out extension (png, svg, pdf).`,
		Example: `  macrodash chart quarterly -g GDP --out gdp.png
  macrodash chart monthly -g Prices -i CPI --from 2020 --out cpi.svg`,
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
			if err := chart.Save(out, tbl, chart.Options{Title: title}); err != nil {
				return err
			}
			cc.Renderer.Success(fmt.Sprintf("Wrote chart of %s (%d periods) to %s", tbl.Group, tbl.Len(), out))
			return nil
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVar(&out, "out", "chart.png", "Output image file")
	cmd.Flags().StringVar(&title, "title", "", "Chart title (default: group name)")
	return cmd
}
