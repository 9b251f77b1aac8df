// Package sqlite provides an embedded SQLite warehouse adapter for macrodash,
// backed by the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/adapter"

	_ "modernc.org/sqlite" // sqlite driver
)

// DefaultSchema is SQLite's main database name.
const DefaultSchema = "main"

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Connect opens the database file, or a private in-memory database when the
// path is empty or ":memory:".
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	// An in-memory database lives and dies with a single connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// GetTableMetadata reads column metadata with PRAGMA table_info, since
// SQLite has no information_schema.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	schema, name := adapter.ParseQualifiedName(table, DefaultSchema)

	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA %s.table_info(%s)", adapter.QuoteIdent(schema), adapter.QuoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var (
			cid     int
			col     adapter.Column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = cid + 1
		col.Nullable = notNull == 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	var rowCount int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", adapter.QuoteIdent(schema), adapter.QuoteIdent(name)) //nolint:gosec // quoted identifiers
	if err := a.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		rowCount = 0
	}

	return &adapter.Metadata{Schema: schema, Name: name, Columns: columns, RowCount: rowCount}, nil
}

// LoadCSV replaces tableName with the contents of a CSV file. Columns are
// created untyped so SQLite applies its own affinity to each value.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	f, err := os.Open(filePath) //nolint:gosec // seed paths come from the project directory
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	headers, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	var records [][]any
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}
		row := make([]any, len(headers))
		for i := range headers {
			if i < len(rec) && rec[i] != "" {
				row[i] = rec[i]
			}
		}
		records = append(records, row)
	}

	defs := make([]string, len(headers))
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		defs[i] = adapter.QuoteIdent(headers[i])
	}
	table := adapter.QuoteQualified(tableName)
	if err := a.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return err
	}
	if err := a.Exec(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return err
	}
	return a.Insert(ctx, tableName, headers, records)
}

// Insert appends rows to an existing table.
func (a *Adapter) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	return a.InsertCommon(ctx, table, columns, rows, a.Placeholder)
}

// Replace swaps the contents of table for rows in one transaction.
func (a *Adapter) Replace(ctx context.Context, table string, columns []string, rows [][]any) error {
	return a.ReplaceCommon(ctx, table, columns, rows, a.Placeholder)
}

// Placeholder returns "?".
func (a *Adapter) Placeholder(n int) string {
	return adapter.QuestionPlaceholder(n)
}

// DefaultSchema returns "main".
func (a *Adapter) DefaultSchema() string {
	return DefaultSchema
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
