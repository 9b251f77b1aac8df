package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macrodash/internal/cli/testutil"
	"github.com/leapstack-labs/macrodash/internal/engine"
	"github.com/leapstack-labs/macrodash/internal/state"
	logtest "github.com/leapstack-labs/macrodash/internal/testutil"
	"github.com/leapstack-labs/macrodash/pkg/adapter"
	"github.com/leapstack-labs/macrodash/pkg/core"

	_ "github.com/leapstack-labs/macrodash/pkg/adapters/sqlite"
)

// newStateBackend creates a migrated state database with one load and one
// publish recorded, and opens it read-only.
func newStateBackend(t *testing.T) *stateBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")

	store := state.NewSQLiteStore(logtest.NewTestLogger(t))
	require.NoError(t, store.Open(path))
	require.NoError(t, store.InitSchema())
	require.NoError(t, store.RecordLoad(&core.LoadRecord{
		DatasetID: "quarterly",
		Source:    "data/quarterly.csv",
		Frequency: core.Quarterly,
		Rows:      6,
		Groups:    2,
		LoadedAt:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}))
	run, err := store.CreatePublish("quarterly", "macro_quarterly")
	require.NoError(t, err)
	require.NoError(t, store.CompletePublish(run.ID, core.RunStatusCompleted, 16, ""))
	require.NoError(t, store.Close())

	db, err := openStateDBReadOnly(path)
	require.NoError(t, err)
	b := &stateBackend{db: db, path: path}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestStateBackend_Tables(t *testing.T) {
	b := newStateBackend(t)

	names, err := b.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"loads", "publishes"}, names)

	buf := new(bytes.Buffer)
	require.NoError(t, listTables(context.Background(), buf, b, "csv"))
	assert.Equal(t, "name\nloads\npublishes\n", buf.String())
}

func TestStateBackend_Schema(t *testing.T) {
	b := newStateBackend(t)

	cols, err := b.Schema(context.Background(), "publishes")
	require.NoError(t, err)
	require.NotEmpty(t, cols)
	assert.Equal(t, "id", cols[0].Name)
	assert.True(t, cols[0].PK)

	var errCol *columnInfo
	for i := range cols {
		if cols[i].Name == "error" {
			errCol = &cols[i]
		}
	}
	require.NotNil(t, errCol)
	assert.True(t, errCol.Nullable)

	_, err = b.Schema(context.Background(), "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestShowSchema_Formats(t *testing.T) {
	b := newStateBackend(t)
	ctx := context.Background()

	buf := new(bytes.Buffer)
	require.NoError(t, showSchema(ctx, buf, b, "loads", "table"))
	assert.Contains(t, buf.String(), "Table: loads")
	assert.Contains(t, buf.String(), "dataset_id")
	assert.Contains(t, buf.String(), "PK")

	buf.Reset()
	require.NoError(t, showSchema(ctx, buf, b, "loads", "json"))
	var out schemaOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "loads", out.Name)
	assert.NotEmpty(t, out.Columns)
}

func TestExecuteAndRender_Formats(t *testing.T) {
	b := newStateBackend(t)
	ctx := context.Background()
	q := "SELECT dataset_id, table_name, row_count FROM publishes"

	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{"table", func(t *testing.T, out string) {
			assert.Contains(t, out, "macro_quarterly")
			assert.Contains(t, out, "(1 rows)")
		}},
		{"csv", func(t *testing.T, out string) {
			assert.Equal(t, "dataset_id,table_name,row_count\nquarterly,macro_quarterly,16\n", out)
		}},
		{"md", func(t *testing.T, out string) {
			assert.True(t, strings.HasPrefix(out, "| dataset_id | table_name | row_count |\n| --- | --- | --- |\n"))
		}},
		{"json", func(t *testing.T, out string) {
			var rows []map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &rows))
			require.Len(t, rows, 1)
			assert.Equal(t, "macro_quarterly", rows[0]["table_name"])
			assert.InDelta(t, 16, rows[0]["row_count"], 0)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			buf := new(bytes.Buffer)
			require.NoError(t, executeAndRender(ctx, buf, b, q, tt.format))
			tt.check(t, buf.String())
		})
	}
}

func TestExecuteAndRender_EmptyAndErrors(t *testing.T) {
	b := newStateBackend(t)
	ctx := context.Background()

	buf := new(bytes.Buffer)
	require.NoError(t, executeAndRender(ctx, buf, b, "SELECT * FROM loads WHERE 1 = 0", "table"))
	assert.Equal(t, "(0 rows)\n", buf.String())

	buf.Reset()
	require.NoError(t, executeAndRender(ctx, buf, b, "SELECT * FROM loads WHERE 1 = 0", "json"))
	assert.Equal(t, "[]\n", buf.String())

	err := executeAndRender(ctx, buf, b, "SELECT * FROM missing", "table")
	assert.ErrorContains(t, err, "query failed")
}

func TestWarehouseBackend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "quarterly.csv"), []byte(testutil.QuarterlyCSV), 0o600))

	eng, err := engine.New(engine.Config{
		Source:        core.SourceConfig{Type: "csv", Path: filepath.Join(dir, "data")},
		StatePath:     filepath.Join(dir, ".macrodash", "state.db"),
		AdapterConfig: &adapter.Config{Type: "sqlite", Path: filepath.Join(dir, "warehouse.db")},
		Logger:        logtest.NewTestLogger(t),
	})
	require.NoError(t, err)

	closed := false
	b := &warehouseBackend{eng: eng, cleanup: func() { closed = true; _ = eng.Close() }}
	ctx := context.Background()

	names, err := b.Tables(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = eng.Publish(ctx, "quarterly", "")
	require.NoError(t, err)

	names, err = b.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{engine.TableName("quarterly")}, names)

	cols, err := b.Schema(ctx, engine.TableName("quarterly"))
	require.NoError(t, err)
	assert.NotEmpty(t, cols)

	buf := new(bytes.Buffer)
	require.NoError(t, executeAndRender(ctx, buf, b, "SELECT COUNT(*) AS n FROM "+engine.TableName("quarterly"), "csv"))
	assert.Equal(t, "n\n16\n", buf.String())

	require.NoError(t, b.Close())
	assert.True(t, closed)
}

func TestRenderCSV_Quoting(t *testing.T) {
	buf := new(bytes.Buffer)
	results := []map[string]any{{"a": "x,y", "b": nil}}
	require.NoError(t, renderCSV(buf, []string{"a", "b"}, results))
	assert.Equal(t, "a,b\n\"x,y\",\n", buf.String())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"text", "text"},
		{int64(42), "42"},
		{3.5, "3.5"},
		{time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "2024-01-02T03:04:05Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}

func TestHandleDotCommand(t *testing.T) {
	b := newStateBackend(t)
	cmd := NewQueryCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	ctx := context.Background()

	assert.False(t, handleDotCommand(ctx, cmd, b, ".tables", "csv"))
	assert.Contains(t, out.String(), "publishes")

	assert.False(t, handleDotCommand(ctx, cmd, b, ".schema", "table"))
	assert.Contains(t, errOut.String(), "Usage: .schema")

	assert.False(t, handleDotCommand(ctx, cmd, b, ".bogus", "table"))
	assert.Contains(t, errOut.String(), "Unknown command: .bogus")

	assert.True(t, handleDotCommand(ctx, cmd, b, ".quit", "table"))
	assert.True(t, handleDotCommand(ctx, cmd, b, ".EXIT", "table"))
}
