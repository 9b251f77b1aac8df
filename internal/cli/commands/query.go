package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/macrodash/internal/cli/config"
	"github.com/spf13/cobra"

	// sqlite driver for state database queries.
	_ "modernc.org/sqlite"
)

// resolveStatePath returns the state database path from config or the default.
func resolveStatePath(cfg *config.Config) string {
	if cfg.StatePath != "" {
		return cfg.StatePath
	}
	return config.DefaultStateFile
}

// openStateDBReadOnly opens the state database in read-only mode.
func openStateDBReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path+"?mode=ro")
}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format    string
	Input     string
	Warehouse bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run SQL against the state database or the warehouse",
		Long: `Run SQL against the macrodash state database.

The state database records every dataset load and every warehouse publish
(tables "loads" and "publishes"). With --warehouse the statement runs on the
configured target instead, where published fact tables live.

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Recent loads
  macrodash query "SELECT dataset_id, frequency, last_label FROM loads ORDER BY loaded_at DESC"

  # List tables
  macrodash query tables

  # Schema of a published fact table
  macrodash query schema macro_quarterly --warehouse

  # Query the warehouse as JSON
  macrodash query --warehouse "SELECT * FROM macro_quarterly LIMIT 5" --format json

  # Interactive mode
  macrodash query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.PersistentFlags().BoolVarP(&opts.Warehouse, "warehouse", "w", false, "Query the configured warehouse target")
	cmd.Flags().StringVar(&opts.Input, "input", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	}

	backend, err := openQueryBackend(cmd, opts.Warehouse)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	if strings.TrimSpace(sqlQuery) == "" {
		return runQueryREPL(cmd, backend, opts)
	}
	return executeAndRender(cmd.Context(), cmd.OutOrStdout(), backend, sqlQuery, opts.Format)
}

func executeAndRender(ctx context.Context, w io.Writer, backend queryBackend, sqlQuery, format string) error {
	rows, err := backend.Query(ctx, sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(w, rows, format)
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the state database (or published warehouse tables)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, err := openQueryBackend(cmd, opts.Warehouse)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()
			return listTables(cmd.Context(), cmd.OutOrStdout(), backend, opts.Format)
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openQueryBackend(cmd, opts.Warehouse)
			if err != nil {
				return err
			}
			defer func() { _ = backend.Close() }()
			return showSchema(cmd.Context(), cmd.OutOrStdout(), backend, args[0], opts.Format)
		},
	}
}

// openQueryBackend returns the warehouse backend when asked for, otherwise
// the read-only state database.
func openQueryBackend(cmd *cobra.Command, warehouse bool) (queryBackend, error) {
	if warehouse {
		cmdCtx, cleanup, err := NewCommandContext(cmd)
		if err != nil {
			return nil, err
		}
		if cmdCtx.Cfg.Target == nil {
			cleanup()
			return nil, errors.New("no warehouse target configured (set target in macrodash.yaml or pass --database)")
		}
		return &warehouseBackend{eng: cmdCtx.Engine, cleanup: cleanup}, nil
	}

	statePath := resolveStatePath(NewCommandContextWithoutEngine(cmd).Cfg)
	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("state database not found at %s (run 'macrodash datasets' or 'macrodash publish' first)", statePath)
	}
	db, err := openStateDBReadOnly(statePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &stateBackend{db: db, path: statePath}, nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
