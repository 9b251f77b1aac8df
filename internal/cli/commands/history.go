package commands

import (
	"strconv"
	"time"

	"github.com/leapstack-labs/macrodash/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var dataset string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded dataset loads and warehouse publishes",
		Long: `Show the most recent dataset loads (frequency, covered periods, sizes)
and publish runs recorded in the state database, newest first.`,
		Example: `  macrodash history
  macrodash history --dataset quarterly --limit 5 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			store := cc.Engine.Store()
			loads, err := store.ListLoads(dataset, limit)
			if err != nil {
				return err
			}
			runs, err := store.ListPublishes(limit)
			if err != nil {
				return err
			}

			out := output.HistoryOutput{
				Loads:     make([]output.LoadInfo, 0, len(loads)),
				Publishes: make([]output.PublishInfo, 0, len(runs)),
			}
			for _, l := range loads {
				out.Loads = append(out.Loads, output.LoadInfo{
					Dataset:    l.DatasetID,
					Source:     l.Source,
					Frequency:  string(l.Frequency),
					Rows:       l.Rows,
					Groups:     l.Groups,
					Indicators: l.Indicators,
					First:      l.FirstLabel,
					Last:       l.LastLabel,
					LoadedAt:   l.LoadedAt,
				})
			}
			for _, run := range runs {
				if dataset != "" && run.DatasetID != dataset {
					continue
				}
				out.Publishes = append(out.Publishes, publishInfo(run))
			}
			return renderHistory(cc.Renderer, out)
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", "", "Only show this dataset")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries per section (0 = all)")
	return cmd
}

func renderHistory(r *output.Renderer, out output.HistoryOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, "Loads")
	if len(out.Loads) == 0 {
		r.Muted("No loads recorded")
	} else {
		rows := make([][]string, len(out.Loads))
		for i, l := range out.Loads {
			rows[i] = []string{
				l.LoadedAt.Local().Format(time.DateTime),
				l.Dataset,
				l.Frequency,
				strconv.Itoa(l.Rows),
				l.First + " .. " + l.Last,
				strconv.Itoa(l.Groups),
				strconv.Itoa(l.Indicators),
			}
		}
		r.Table([]string{"Loaded", "Dataset", "Frequency", "Periods", "Range", "Groups", "Indicators"}, rows)
	}

	r.Println("")
	r.Header(1, "Publishes")
	if len(out.Publishes) == 0 {
		r.Muted("No publishes recorded")
		return nil
	}
	rows := make([][]string, len(out.Publishes))
	for i, p := range out.Publishes {
		rows[i] = []string{
			p.StartedAt.Local().Format(time.DateTime),
			p.Dataset,
			p.Table,
			p.Status,
			strconv.FormatInt(p.Rows, 10),
			p.Error,
		}
	}
	r.Table([]string{"Started", "Dataset", "Table", "Status", "Rows", "Error"}, rows)
	return nil
}
