package commands

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/macrodash/internal/engine"
	"github.com/leapstack-labs/macrodash/pkg/core"
)

// queryBackend is a database the query command can run statements on.
type queryBackend interface {
	Name() string
	Query(ctx context.Context, q string) (*sql.Rows, error)
	Tables(ctx context.Context) ([]string, error)
	Schema(ctx context.Context, table string) ([]columnInfo, error)
	Close() error
}

// stateBackend queries the sqlite state database.
type stateBackend struct {
	db   *sql.DB
	path string
}

func (b *stateBackend) Name() string { return "state: " + b.path }

func (b *stateBackend) Query(ctx context.Context, q string) (*sql.Rows, error) {
	return b.db.QueryContext(ctx, q)
}

func (b *stateBackend) Tables(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (b *stateBackend) Schema(ctx context.Context, table string) ([]columnInfo, error) {
	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoted))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []columnInfo
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, columnInfo{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
			PK:       pk == 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table '%s' not found", table)
	}
	return columns, nil
}

func (b *stateBackend) Close() error { return b.db.Close() }

// warehouseBackend queries the configured target through the engine's adapter.
type warehouseBackend struct {
	eng     *engine.Engine
	cleanup func()
}

func (b *warehouseBackend) Name() string {
	return "warehouse"
}

func (b *warehouseBackend) Query(ctx context.Context, q string) (*sql.Rows, error) {
	db, err := b.eng.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return rows.Rows, nil
}

// Tables lists the fact tables macrodash has published successfully.
func (b *warehouseBackend) Tables(_ context.Context) ([]string, error) {
	runs, err := b.eng.Store().ListPublishes(0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, run := range runs {
		if run.Status != core.RunStatusCompleted || seen[run.Table] {
			continue
		}
		seen[run.Table] = true
		names = append(names, run.Table)
	}
	sort.Strings(names)
	return names, nil
}

func (b *warehouseBackend) Schema(ctx context.Context, table string) ([]columnInfo, error) {
	db, err := b.eng.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := db.GetTableMetadata(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(meta.Columns) == 0 {
		return nil, fmt.Errorf("table '%s' not found", table)
	}
	columns := make([]columnInfo, len(meta.Columns))
	for i, c := range meta.Columns {
		columns[i] = columnInfo{Name: c.Name, Type: c.Type, Nullable: c.Nullable}
	}
	return columns, nil
}

func (b *warehouseBackend) Close() error {
	b.cleanup()
	return nil
}
