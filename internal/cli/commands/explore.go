package commands

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const explorePrompt = "macrodash> "

// explorer holds the REPL selection.
type explorer struct {
	cc      *CommandContext
	dataset string
	flags   seriesFlags
}

// NewExploreCommand creates the explore command.
func NewExploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore [dataset]",
		Short: "Interactively browse datasets, groups and series",
		Long: `Start an interactive session over the configured source. Pick a dataset
and a group, narrow the period range, and print series or KPIs without
reloading the source between steps.`,
		Example: `  macrodash explore
  macrodash explore quarterly`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ex := &explorer{cc: cc}
			if len(args) == 1 {
				ex.dataset = args[0]
			}
			return ex.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func (ex *explorer) run(ctx context.Context, out, errOut io.Writer) error {
	historyFile := filepath.Join(filepath.Dir(ex.cc.Cfg.StatePath), "explore_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ex.prompt(),
		HistoryFile:     historyFile,
		AutoComplete:    ex.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          out,
		Stderr:          errOut,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(out, "macrodash explorer (source: %s)\n", ex.cc.Cfg.Source.Path)
	_, _ = fmt.Fprintln(out, "Type help for commands, quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		quit, err := ex.exec(ctx, out, line)
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
		rl.SetPrompt(ex.prompt())
	}
}

func (ex *explorer) prompt() string {
	switch {
	case ex.dataset == "":
		return explorePrompt
	case ex.flags.Group == "":
		return fmt.Sprintf("macrodash:%s> ", ex.dataset)
	default:
		return fmt.Sprintf("macrodash:%s/%s> ", ex.dataset, ex.flags.Group)
	}
}

// exec runs one REPL command. It reports true when the session should end.
func (ex *explorer) exec(ctx context.Context, out io.Writer, line string) (bool, error) {
	fields := strings.Fields(line)
	command, rest := strings.ToLower(fields[0]), strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch command {
	case "quit", "exit", ".quit", ".exit":
		return true, nil

	case "help", ".help":
		printExploreHelp(out)

	case "datasets", "ls":
		return false, runDatasetsWith(ctx, ex.cc)

	case "use":
		if rest == "" {
			return false, fmt.Errorf("usage: use <dataset>")
		}
		if _, err := ex.cc.Engine.Dataset(ctx, rest); err != nil {
			return false, err
		}
		ex.dataset = rest
		ex.flags = seriesFlags{}

	case "groups":
		if err := ex.needDataset(); err != nil {
			return false, err
		}
		return false, runGroupsWith(ctx, ex.cc, ex.dataset)

	case "group":
		if err := ex.needDataset(); err != nil {
			return false, err
		}
		if rest == "" {
			return false, fmt.Errorf("usage: group <name>")
		}
		ex.flags.Group = rest
		ex.flags.Indicators = nil

	case "select":
		ex.flags.Indicators = splitList(rest)

	case "range":
		parts := strings.Fields(rest)
		ex.flags.From, ex.flags.To = "", ""
		if len(parts) > 0 {
			ex.flags.From = parts[0]
		}
		if len(parts) > 1 {
			ex.flags.To = parts[1]
		}

	case "series", "kpi":
		if err := ex.needGroup(); err != nil {
			return false, err
		}
		tbl, err := selectSeries(ctx, ex.cc, ex.dataset, &ex.flags)
		if err != nil {
			return false, err
		}
		if command == "series" {
			return false, renderSeries(ex.cc.Renderer, tbl)
		}
		kpis, err := buildKPIs(ex.dataset, tbl)
		if err != nil {
			return false, err
		}
		return false, renderKPIs(ex.cc.Renderer, kpis)

	case "reload":
		ex.cc.Engine.InvalidateAll()
		_, _ = fmt.Fprintln(out, "Cache cleared")

	default:
		return false, fmt.Errorf("unknown command: %s (type help for commands)", command)
	}
	return false, nil
}

func (ex *explorer) needDataset() error {
	if ex.dataset == "" {
		return fmt.Errorf("no dataset selected (use <dataset>)")
	}
	return nil
}

func (ex *explorer) needGroup() error {
	if err := ex.needDataset(); err != nil {
		return err
	}
	if ex.flags.Group == "" {
		return fmt.Errorf("no group selected (group <name>)")
	}
	return nil
}

func (ex *explorer) completer(ctx context.Context) *readline.PrefixCompleter {
	var ids []readline.PrefixCompleterInterface
	if infos, err := ex.cc.Engine.Datasets(ctx); err == nil {
		for _, info := range infos {
			ids = append(ids, readline.PcItem(info.ID))
		}
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("use", ids...),
		readline.PcItem("datasets"),
		readline.PcItem("groups"),
		readline.PcItem("group"),
		readline.PcItem("select"),
		readline.PcItem("range"),
		readline.PcItem("series"),
		readline.PcItem("kpi"),
		readline.PcItem("reload"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// splitList parses a comma-separated list. Double-quoted items may contain
// commas.
func splitList(s string) []string {
	r := csv.NewReader(strings.NewReader(s))
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		return nil
	}
	var out []string
	for _, f := range fields {
		if p := strings.TrimSpace(f); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printExploreHelp(w io.Writer) {
	help := `
Commands:
  datasets              List datasets
  use <dataset>         Select a dataset
  groups                List groups of the selected dataset
  group <name>          Select a group
  select <a, b, ...>    Select indicators (empty for all)
  range [from] [to]     Limit the period range (empty to clear)
  series                Print the selected series
  kpi                   Print KPIs of the selected series
  reload                Reread the source
  help                  Show this help message
  quit                  Exit
`
	_, _ = fmt.Fprintln(w, help)
}
