package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/macrodash/internal/cli/config"
	"github.com/leapstack-labs/macrodash/internal/cli/output"
	intconfig "github.com/leapstack-labs/macrodash/internal/config"
	"github.com/leapstack-labs/macrodash/internal/engine"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/leapstack-labs/macrodash/pkg/normalize"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// getConfig returns the loaded configuration, or defaults read from the
// environment when commands run without the root command.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	src := core.SourceConfig{
		Type: os.Getenv(config.EnvPrefix + "SOURCE__TYPE"),
		Path: os.Getenv(config.EnvPrefix + "SOURCE__PATH"),
	}
	intconfig.ApplySourceDefaults(&src)

	return &config.Config{
		Source:       src,
		SeedsDir:     getEnvOrDefault(config.EnvPrefix+"SEEDS_DIR", config.DefaultSeedsDir),
		StatePath:    getEnvOrDefault(config.EnvPrefix+"STATE_PATH", config.DefaultStateFile),
		Environment:  getEnvOrDefault(config.EnvPrefix+"ENVIRONMENT", config.DefaultEnv),
		Verbose:      os.Getenv(config.EnvPrefix+"VERBOSE") == "true",
		OutputFormat: os.Getenv(config.EnvPrefix + "OUTPUT"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	return engine.New(engine.Config{
		Source:        cfg.Source,
		SeedsDir:      cfg.SeedsDir,
		StatePath:     cfg.StatePath,
		AdapterConfig: intconfig.AdapterConfig(cfg.Target),
		Logger:        logger,
	})
}

// seriesFlags are the selection flags shared by series, kpi, export and chart.
type seriesFlags struct {
	Group      string
	Indicators []string
	From       string
	To         string
	DropEmpty  bool
}

func (f *seriesFlags) register(cmd *cobra.Command, requireGroup bool) {
	cmd.Flags().StringVarP(&f.Group, "group", "g", "", "Indicator group")
	cmd.Flags().StringArrayVarP(&f.Indicators, "indicator", "i", nil, "Indicator to select, repeatable (default: all indicators of the group)")
	cmd.Flags().StringVar(&f.From, "from", "", "Start period, inclusive (e.g. 2020, 2020-Q2, 2020-03)")
	cmd.Flags().StringVar(&f.To, "to", "", "End period, inclusive")
	cmd.Flags().BoolVar(&f.DropEmpty, "drop-empty", false, "Drop periods where every selected indicator is missing")
	if requireGroup {
		_ = cmd.MarkFlagRequired("group")
	}
}

// selectSeries builds the series selected by f. Missing indicators are
// reported as a warning when at least one indicator was found.
func selectSeries(ctx context.Context, cc *CommandContext, datasetID string, f *seriesFlags) (*core.PeriodIndexedTable, error) {
	tbl, err := cc.Engine.Series(ctx, datasetID, f.Group, f.Indicators)
	if err != nil {
		if tbl == nil || len(tbl.Indicators) == 0 || !normalize.OnlyMissingIndicators(err) {
			return nil, err
		}
		cc.Renderer.Warning(err.Error())
	}

	tbl, err = normalize.Between(tbl, f.From, f.To)
	if err != nil {
		return nil, err
	}
	if f.DropEmpty {
		tbl = tbl.DropEmpty()
	}
	return tbl, nil
}

// datasetCompletion completes dataset ids from the configured source.
func datasetCompletion(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer cleanup()

	infos, err := cc.Engine.Datasets(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
