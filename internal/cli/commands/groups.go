package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/macrodash/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewGroupsCommand creates the groups command.
func NewGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "groups <dataset>",
		Short: "List indicator groups and their indicators",
		Long: `List the indicator groups of a dataset in the order they appear in
the source, with the indicators of each group.`,
		Example: `  macrodash groups quarterly
  macrodash groups quarterly -o json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroups(cmd, args[0])
		},
	}
}

func runGroups(cmd *cobra.Command, datasetID string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	return runGroupsWith(cmd.Context(), cc, datasetID)
}

func runGroupsWith(ctx context.Context, cc *CommandContext, datasetID string) error {
	ds, err := cc.Engine.Dataset(ctx, datasetID)
	if err != nil {
		return err
	}

	out := output.GroupsOutput{Dataset: datasetID, Frequency: string(ds.Frequency)}
	for _, g := range ds.Groups() {
		out.Groups = append(out.Groups, output.GroupInfo{Name: g, Indicators: ds.Indicators(g)})
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Groups of %s", datasetID)))
		r.Println("")
		r.Println(output.FormatKeyValue("Frequency", out.Frequency))
		r.Println("")
		for _, g := range out.Groups {
			r.Println(output.FormatHeader(2, g.Name))
			for _, ind := range g.Indicators {
				r.Println("- " + ind)
			}
			r.Println("")
		}
	default:
		r.Header(1, fmt.Sprintf("Groups of %s (%s)", datasetID, out.Frequency))
		for _, g := range out.Groups {
			r.StatusLine(g.Name, "", fmt.Sprintf("%d indicators", len(g.Indicators)))
			for _, ind := range g.Indicators {
				r.Println("      " + ind)
			}
		}
	}
	return nil
}
