package commands

import (
	"fmt"

	"github.com/leapstack-labs/macrodash/internal/analysis"
	"github.com/leapstack-labs/macrodash/internal/cli/output"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/spf13/cobra"
)

// NewKPICommand creates the kpi command.
func NewKPICommand() *cobra.Command {
	flags := &seriesFlags{}

	cmd := &cobra.Command{
		Use:   "kpi <dataset>",
		Short: "Summarize indicators: last value, statistics and changes",
		Long: `Show the key figures of each selected indicator: the latest value and
its period, count, mean, median, min, max and sample standard deviation,
plus the percentage change against the previous observation (Prev), the
same period one year earlier (YoY) and the first observation of the
latest year (YTD). Missing values are ignored.`,
		Example: `  macrodash kpi quarterly -g GDP
  macrodash kpi monthly -g Prices -i CPI --from 2021 -o json`,
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
			out, err := buildKPIs(args[0], tbl)
			if err != nil {
				return err
			}
			return renderKPIs(cc.Renderer, out)
		},
	}

	flags.register(cmd, true)
	return cmd
}

// buildKPIs computes the KPIs of every indicator of t.
func buildKPIs(datasetID string, t *core.PeriodIndexedTable) (output.KPIOutput, error) {
	kpis, err := analysis.KPIs(t)
	if err != nil {
		return output.KPIOutput{}, err
	}
	return output.KPIOutput{Dataset: datasetID, Group: t.Group, Indicators: kpis}, nil
}

func num(p *float64) string {
	if p == nil {
		return ""
	}
	return output.FormatNumber(*p)
}

func renderKPIs(r *output.Renderer, out output.KPIOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("KPIs: %s / %s", out.Dataset, out.Group))
	rows := make([][]string, 0, len(out.Indicators))
	for _, k := range out.Indicators {
		if k.Count == 0 {
			rows = append(rows, []string{k.Indicator, "", "no data", "", "", "", "", "", "", "", ""})
			continue
		}
		rows = append(rows, []string{
			k.Indicator,
			k.LastPeriod,
			num(k.Last),
			output.FormatPercent(k.Prev),
			output.FormatPercent(k.YoY),
			output.FormatPercent(k.YTD),
			num(k.Mean),
			num(k.Median),
			num(k.Min),
			num(k.Max),
			num(k.StdDev),
		})
	}
	r.Table([]string{"Indicator", "Period", "Last", "Prev", "YoY", "YTD", "Mean", "Median", "Min", "Max", "Std"}, rows)
	return nil
}
