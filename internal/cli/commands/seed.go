package commands

import (
	"github.com/leapstack-labs/macrodash/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load seed data from CSV files",
		Long: `Load seed data from CSV files in the seeds directory into the warehouse.

Seeds are reference tables such as region codes or indicator metadata that
dashboards join against published observations.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Load all seeds
  macrodash seed

  # Load seeds from a specific directory
  macrodash seed --seeds-dir ./reference`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd)
		},
	}
}

func runSeed(cmd *cobra.Command) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cc.Renderer
	seedsDir := cc.Cfg.SeedsDir

	loaded, err := cc.Engine.LoadSeeds(cmd.Context())
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if loaded == nil {
			loaded = []string{}
		}
		return r.JSON(output.SeedOutput{Directory: seedsDir, Seeds: loaded})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Seeds"))
		r.Println("")
		if len(loaded) == 0 {
			r.Println("No seed files found in " + seedsDir)
			return nil
		}
		for _, name := range loaded {
			r.Println(output.FormatKeyValue("Table", name))
		}
		r.Println("")
		r.Println(output.FormatKeyValue("Source Directory", seedsDir))
		r.Printf("**Total Seeds:** %d\n", len(loaded))
	default:
		r.Header(1, "Seeds")
		if len(loaded) == 0 {
			r.Muted("No seed files found in " + seedsDir)
			return nil
		}
		for _, name := range loaded {
			r.StatusLine(name, "success", name+".csv")
		}
		r.Println("")
		r.Muted("Source: " + seedsDir)
	}
	return nil
}
