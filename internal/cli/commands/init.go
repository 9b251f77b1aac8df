package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/macrodash/internal/cli/output"
	intconfig "github.com/leapstack-labs/macrodash/internal/config"
	"github.com/leapstack-labs/macrodash/internal/loader"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Force      bool
	SourceType string
	SourcePath string
	Target     string
}

// starterConfig is the YAML layout written by init.
type starterConfig struct {
	Source   starterSource  `yaml:"source"`
	SeedsDir string         `yaml:"seeds_dir"`
	Target   *starterTarget `yaml:"target,omitempty"`
	UI       starterUI      `yaml:"ui"`
}

type starterSource struct {
	Type          string `yaml:"type"`
	Path          string `yaml:"path"`
	HeaderRows    int    `yaml:"header_rows"`
	FallbackGroup string `yaml:"fallback_group"`
}

type starterTarget struct {
	Type     string `yaml:"type"`
	Database string `yaml:"database"`
}

type starterUI struct {
	Port  int  `yaml:"port"`
	Watch bool `yaml:"watch"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new macrodash project",
		Long: `Initialize a new macrodash project.

This creates:
  - macrodash.yaml configuration file
  - data/ directory for source workbooks or CSV files
  - seeds/ directory for reference CSV files`,
		Example: `  # Initialize in current directory
  macrodash init

  # Read a workbook and publish to DuckDB
  macrodash init --path data/macro.xlsx --warehouse duckdb

  # Force overwrite existing config
  macrodash init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cc := NewCommandContextWithoutEngine(cmd)
			return runInit(cc.Renderer, dir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&opts.SourceType, "type", "", "Source type (xlsx|csv|jsonstat), inferred from --path when empty")
	cmd.Flags().StringVar(&opts.SourcePath, "path", "data", "Source path relative to the project")
	cmd.Flags().StringVar(&opts.Target, "warehouse", "", "Warehouse type to configure (duckdb|sqlite)")

	return cmd
}

func runInit(r *output.Renderer, dir string, opts *InitOptions) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	data, err := renderStarterConfig(opts)
	if err != nil {
		return err
	}

	created := []string{intconfig.ConfigFileName}
	for _, sub := range []string{"data", intconfig.DefaultSeedsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
		created = append(created, sub+"/")
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	for _, f := range created {
		r.StatusLine(f, "success", "")
	}
	r.Println("")
	r.Success("macrodash project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Put your workbook or CSV files in data/")
	r.Println("  2. Run 'macrodash datasets' to see what was found")
	r.Println("  3. Run 'macrodash serve' to open the dashboard")
	return nil
}

// renderStarterConfig marshals the starter configuration for opts.
func renderStarterConfig(opts *InitOptions) ([]byte, error) {
	typ := opts.SourceType
	if typ == "" {
		typ = loader.InferType(opts.SourcePath)
	}

	cfg := starterConfig{
		Source: starterSource{
			Type:          typ,
			Path:          opts.SourcePath,
			HeaderRows:    intconfig.DefaultHeaderRows,
			FallbackGroup: "Other",
		},
		SeedsDir: intconfig.DefaultSeedsDir,
		UI:       starterUI{Port: intconfig.DefaultUIPort, Watch: true},
	}

	switch opts.Target {
	case "":
	case "duckdb":
		cfg.Target = &starterTarget{Type: "duckdb", Database: "warehouse.duckdb"}
	case "sqlite":
		cfg.Target = &starterTarget{Type: "sqlite", Database: "warehouse.db"}
	default:
		return nil, fmt.Errorf("unsupported warehouse %q for init (use duckdb or sqlite, or edit %s)", opts.Target, intconfig.ConfigFileName)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return append([]byte("# macrodash project configuration\n"), data...), nil
}
