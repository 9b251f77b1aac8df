package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/macrodash/internal/cli/output"
	"github.com/leapstack-labs/macrodash/internal/engine"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/leapstack-labs/macrodash/pkg/normalize"
	"github.com/spf13/cobra"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, markdown, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check every dataset and the warehouse for problems",
		Long: `Load and normalize every dataset in the source and report problems.

The report includes:
- A source summary (datasets, groups, indicators)
- Health checks grouped by category (Datasets, Indicators, Warehouse)
- A health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  macrodash doctor

  # Output as JSON
  macrodash doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         SourceSummary `json:"summary"`
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// SourceSummary contains source-level statistics.
type SourceSummary struct {
	Source     string `json:"source"`
	SourceType string `json:"source_type"`
	Datasets   int    `json:"datasets"`
	Loaded     int    `json:"loaded"`
	Groups     int    `json:"groups"`
	Indicators int    `json:"indicators"`
	Warehouse  string `json:"warehouse,omitempty"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

type doctorRule struct {
	ID             string
	Name           string
	Group          string
	Error          bool
	Recommendation string
	warehouse      bool
}

var doctorRules = []doctorRule{
	{ID: "DS01", Name: "Dataset normalizes", Group: "datasets", Error: true,
		Recommendation: "Fix the header rows or time columns of datasets that fail to load"},
	{ID: "DS02", Name: "No period gaps", Group: "datasets",
		Recommendation: "Add rows for missing periods so growth rates compare adjacent periods"},
	{ID: "DS03", Name: "Value columns have a group", Group: "datasets",
		Recommendation: "Add a group header above ungrouped value columns or set source.fallback_group"},
	{ID: "IN01", Name: "No empty indicators", Group: "indicators",
		Recommendation: "Remove indicator columns that hold no numeric values"},
	{ID: "WH01", Name: "Warehouse reachable", Group: "warehouse", Error: true, warehouse: true,
		Recommendation: "Check the target settings in macrodash.yaml"},
	{ID: "WH02", Name: "Datasets published", Group: "warehouse", warehouse: true,
		Recommendation: "Run 'macrodash publish --all' to load every dataset into the warehouse"},
}

type doctorDiagnostic struct {
	RuleID  string
	Message string
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	out, err := diagnose(cmd.Context(), cmdCtx.Engine, cmdCtx.Cfg.Target != nil)
	if err != nil {
		return err
	}
	if out.Summary.Datasets == 0 {
		r.Warning("No datasets found in source " + out.Summary.Source)
		return nil
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

// diagnose loads every dataset and runs the health rules against it.
func diagnose(ctx context.Context, eng *engine.Engine, hasTarget bool) (*DoctorOutput, error) {
	src := eng.Source()
	infos, err := eng.Datasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	summary := SourceSummary{Source: src.Path, SourceType: src.Type, Datasets: len(infos)}
	fallback := eng.NormalizeOptions().FallbackGroup
	if fallback == "" {
		fallback = normalize.DefaultFallbackGroup
	}

	var diags []doctorDiagnostic
	loaded := make([]string, 0, len(infos))
	for _, info := range infos {
		ds, err := eng.Dataset(ctx, info.ID)
		if err != nil {
			diags = append(diags, doctorDiagnostic{"DS01", fmt.Sprintf("%s: %v", info.ID, err)})
			continue
		}
		loaded = append(loaded, info.ID)
		summary.Groups += len(ds.Groups())
		for _, g := range ds.Groups() {
			summary.Indicators += len(ds.Indicators(g))
		}
		diags = append(diags, datasetDiagnostics(ds, fallback)...)
	}
	summary.Loaded = len(loaded)

	if hasTarget {
		summary.Warehouse = "configured"
		diags = append(diags, warehouseDiagnostics(ctx, eng, loaded)...)
	}

	return buildDoctorOutput(summary, diags, hasTarget), nil
}

func datasetDiagnostics(ds *normalize.Dataset, fallback string) []doctorDiagnostic {
	var diags []doctorDiagnostic

	for _, gap := range periodGaps(ds.Periods()) {
		diags = append(diags, doctorDiagnostic{"DS02", ds.Name + ": " + gap})
	}

	for _, g := range ds.Groups() {
		if g == fallback {
			diags = append(diags, doctorDiagnostic{"DS03",
				fmt.Sprintf("%s: %d indicators have no group header and were placed in %q", ds.Name, len(ds.Indicators(g)), g)})
		}

		t, err := ds.GroupSeries(g)
		if err != nil {
			continue
		}
		for _, ind := range t.Indicators {
			col, _ := t.Column(ind)
			if !anyValid(col) {
				diags = append(diags, doctorDiagnostic{"IN01", fmt.Sprintf("%s: %s / %s has no values", ds.Name, g, ind)})
			}
		}
	}
	return diags
}

func warehouseDiagnostics(ctx context.Context, eng *engine.Engine, datasets []string) []doctorDiagnostic {
	if _, err := eng.Adapter(ctx); err != nil {
		return []doctorDiagnostic{{"WH01", err.Error()}}
	}

	runs, err := eng.Store().ListPublishes(0)
	if err != nil {
		return []doctorDiagnostic{{"WH02", "cannot read publish history: " + err.Error()}}
	}
	published := make(map[string]bool)
	for _, run := range runs {
		if run.Status == core.RunStatusCompleted {
			published[run.DatasetID] = true
		}
	}

	var diags []doctorDiagnostic
	for _, id := range datasets {
		if !published[id] {
			diags = append(diags, doctorDiagnostic{"WH02", id + ": never published"})
		}
	}
	return diags
}

// periodGaps describes each run of missing periods between consecutive rows.
func periodGaps(periods []core.Period) []string {
	var gaps []string
	for i := 1; i < len(periods); i++ {
		prev, cur := periods[i-1], periods[i]
		missing := periodIndex(cur) - periodIndex(prev) - 1
		if missing > 0 {
			gaps = append(gaps, fmt.Sprintf("%d period(s) missing between %s and %s", missing, prev.Label(), cur.Label()))
		}
	}
	return gaps
}

func periodIndex(p core.Period) int {
	sub := p.Sub
	if sub < 1 {
		sub = 1
	}
	return p.Year*p.Freq.PeriodsPerYear() + sub - 1
}

func anyValid(col []core.Value) bool {
	for _, v := range col {
		if v.Valid {
			return true
		}
	}
	return false
}

func buildDoctorOutput(summary SourceSummary, diags []doctorDiagnostic, hasTarget bool) *DoctorOutput {
	byRule := make(map[string][]string)
	for _, d := range diags {
		byRule[d.RuleID] = append(byRule[d.RuleID], d.Message)
	}

	checks := make([]HealthCheck, 0, len(doctorRules))
	var recommendations []string
	for _, rule := range doctorRules {
		if rule.warehouse && !hasTarget {
			continue
		}
		details := byRule[rule.ID]
		status := "pass"
		if len(details) > 0 {
			status = "warn"
			if rule.Error {
				status = "error"
			}
			if len(recommendations) < 5 {
				recommendations = append(recommendations, rule.Recommendation)
			}
		}
		checks = append(checks, HealthCheck{
			RuleID:     rule.ID,
			Name:       rule.Name,
			Group:      rule.Group,
			Status:     status,
			IssueCount: len(details),
			Details:    details,
		})
	}

	sort.SliceStable(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group < checks[j].Group
		}
		return checks[i].RuleID < checks[j].RuleID
	})

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks, summary.Datasets),
		Recommendations: recommendations,
		IssueCount:      len(diags),
	}
}

// calculateHealthScore computes a health score from 0-100. Errors cost
// twice as much as warnings, and each issue weighs less as the number of
// datasets grows.
func calculateHealthScore(checks []HealthCheck, datasetCount int) int {
	score := 100.0

	penalty := 10.0
	switch {
	case datasetCount > 20:
		penalty = 2.0
	case datasetCount > 5:
		penalty = 5.0
	}

	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= float64(check.IssueCount) * penalty * 2
		case "warn":
			score -= float64(check.IssueCount) * penalty
		}
	}

	return int(max(score, 0))
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()
	rule := styles.Muted.Render(strings.Repeat("=", 55))

	r.Println("")
	r.Println(styles.Header.Render("macrodash Health Report"))
	r.Println(rule)
	r.Println("")

	r.Println(styles.Subheader.Render("Source Summary"))
	r.Printf("   Source: %s (%s)\n", out.Summary.Source, out.Summary.SourceType)
	r.Printf("   Datasets: %d (%d loaded) | Groups: %d | Indicators: %d\n",
		out.Summary.Datasets, out.Summary.Loaded, out.Summary.Groups, out.Summary.Indicators)
	r.Println("")

	r.Println(styles.Subheader.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("✓")
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.Error.Render("✗")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(rule)
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Subheader.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# macrodash Health Report")
	r.Println("")

	r.Println("## Source Summary")
	r.Println("")
	r.Printf("- **Source**: %s (%s)\n", out.Summary.Source, out.Summary.SourceType)
	r.Printf("- **Datasets**: %d (%d loaded)\n", out.Summary.Datasets, out.Summary.Loaded)
	r.Printf("- **Groups**: %d\n", out.Summary.Groups)
	r.Printf("- **Indicators**: %d\n", out.Summary.Indicators)
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		line := fmt.Sprintf("- **[%s]** %s: %s", strings.ToUpper(check.Status), check.RuleID, check.Name)
		if check.IssueCount > 0 {
			line += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println(line)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
