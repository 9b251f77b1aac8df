package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/macrodash/internal/loader"
	"github.com/leapstack-labs/macrodash/internal/testutil"
	"github.com/leapstack-labs/macrodash/pkg/adapter"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/leapstack-labs/macrodash/pkg/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/macrodash/pkg/adapters/sqlite"
)

const quarterCSV = `Year,Quarter,GDP,,Unnamed: 4_level_0,Trade
,,Nominal,Real,Deflator,Exports
2020,1,100,90,1.11,40
,2,102,91,,41
,3,,92,1.12,
2021,1,110,95,1.16,45
`

const monthCSV = `Year,Month,Prices
,,CPI
2021,1,101.5
,2,102.25
`

// newTestEngine builds an engine over a CSV directory with a file-backed
// SQLite warehouse so that several connections see the same data.
func newTestEngine(t *testing.T, withTarget bool) *Engine {
	t.Helper()
	dir := t.TempDir()

	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "quarter.csv"), []byte(quarterCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "month.csv"), []byte(monthCSV), 0o600))

	cfg := Config{
		Source:    core.SourceConfig{Type: loader.SourceCSV, Path: dataDir},
		SeedsDir:  filepath.Join(dir, "seeds"),
		StatePath: filepath.Join(dir, ".macrodash", "state.db"),
		Logger:    testutil.NewTestLogger(t),
	}
	if withTarget {
		cfg.AdapterConfig = &adapter.Config{Type: "sqlite", Path: filepath.Join(dir, "warehouse.db")}
	}

	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestNew_InvalidStatePath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := New(Config{StatePath: filepath.Join(file, "state.db")})
	assert.ErrorContains(t, err, "failed to open state store")
}

func TestEngine_Datasets(t *testing.T) {
	e := newTestEngine(t, false)

	infos, err := e.Datasets(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "month", infos[0].ID)
	assert.Equal(t, "quarter", infos[1].ID)
}

func TestEngine_DatasetRecordsLoadOnce(t *testing.T) {
	e := newTestEngine(t, false)
	ctx := context.Background()

	ds, err := e.Dataset(ctx, "quarter")
	require.NoError(t, err)
	assert.Equal(t, core.Quarterly, ds.Frequency)
	assert.Equal(t, []string{"GDP", "Trade"}, ds.Groups())

	_, err = e.Dataset(ctx, "quarter")
	require.NoError(t, err)

	loads, err := e.Store().ListLoads("quarter", 0)
	require.NoError(t, err)
	require.Len(t, loads, 1)
	assert.Equal(t, 4, loads[0].Rows)
	assert.Equal(t, "2020-Q1", loads[0].FirstLabel)
	assert.Equal(t, "2021-Q1", loads[0].LastLabel)
	assert.Equal(t, 4, loads[0].Indicators)

	e.Invalidate("quarter")
	_, err = e.Dataset(ctx, "quarter")
	require.NoError(t, err)

	loads, err = e.Store().ListLoads("quarter", 0)
	require.NoError(t, err)
	assert.Len(t, loads, 2)
}

func TestEngine_Series(t *testing.T) {
	e := newTestEngine(t, false)
	ctx := context.Background()

	t.Run("explicit indicators", func(t *testing.T) {
		tbl, err := e.Series(ctx, "quarter", "GDP", []string{"Real", "Nominal"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Real", "Nominal"}, tbl.Indicators)
		assert.Equal(t, []string{"2020-Q1", "2020-Q2", "2020-Q3", "2021-Q1"}, tbl.Labels())
	})

	t.Run("whole group", func(t *testing.T) {
		tbl, err := e.Series(ctx, "quarter", "GDP", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Nominal", "Real", "Deflator"}, tbl.Indicators)
	})

	t.Run("missing indicator keeps partial table", func(t *testing.T) {
		tbl, err := e.Series(ctx, "quarter", "GDP", []string{"Real", "Imports"})
		require.ErrorIs(t, err, normalize.ErrIndicatorNotFound)
		require.NotNil(t, tbl)
		assert.Equal(t, []string{"Real"}, tbl.Indicators)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		_, err := e.Series(ctx, "annual", "GDP", nil)
		assert.ErrorIs(t, err, loader.ErrDatasetNotFound)
	})
}

func TestEngine_PublishRequiresTarget(t *testing.T) {
	e := newTestEngine(t, false)

	_, err := e.Publish(context.Background(), "quarter", "")
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestEngine_PublishRoundTrip(t *testing.T) {
	e := newTestEngine(t, true)
	ctx := context.Background()

	run, err := e.Publish(ctx, "quarter", "")
	require.NoError(t, err)
	assert.Equal(t, "macro_quarter", run.Table)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	// 16 cells minus three missing values
	assert.Equal(t, int64(13), run.Rows)

	// publishing again replaces rather than appends
	run, err = e.Publish(ctx, "quarter", "")
	require.NoError(t, err)
	assert.Equal(t, int64(13), run.Rows)

	runs, err := e.Store().ListPublishes(0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	adp, err := e.Adapter(ctx)
	require.NoError(t, err)

	wl := &loader.WarehouseLoader{Adapter: adp, Tables: []string{"macro_quarter"}}
	raw, err := wl.Load(ctx, "macro_quarter")
	require.NoError(t, err)

	back, err := normalize.Normalize(raw, normalize.Options{})
	require.NoError(t, err)
	assert.Equal(t, core.Quarterly, back.Frequency)

	orig, err := e.Series(ctx, "quarter", "GDP", []string{"Nominal", "Real", "Deflator"})
	require.NoError(t, err)
	got, err := back.Series("GDP", []string{"Nominal", "Real", "Deflator"})
	require.NoError(t, err)

	assert.Equal(t, orig.Labels(), got.Labels())
	assert.Equal(t, orig.Values, got.Values)
}

func TestEngine_PublishFailureKeepsTable(t *testing.T) {
	e := newTestEngine(t, true)
	ctx := context.Background()

	adp, err := e.Adapter(ctx)
	require.NoError(t, err)
	require.NoError(t, adp.Exec(ctx, `CREATE TABLE "macro_quarter" (
    "year" INTEGER NOT NULL,
    "quarter" INTEGER,
    "month" INTEGER,
    "group_name" VARCHAR NOT NULL,
    "indicator" VARCHAR NOT NULL,
    "value" DOUBLE PRECISION CHECK ("value" < 50)
)`))
	require.NoError(t, adp.Exec(ctx, `INSERT INTO "macro_quarter" VALUES (2019, 4, NULL, 'GDP', 'Nominal', 1)`))

	run, err := e.Publish(ctx, "quarter", "")
	require.Error(t, err)
	assert.Equal(t, core.RunStatusFailed, run.Status)

	rows, err := adp.Query(ctx, `SELECT COUNT(*) FROM "macro_quarter"`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	assert.Equal(t, 1, n, "failed publish must keep the previous rows")
}

func TestEngine_PublishMonthly(t *testing.T) {
	e := newTestEngine(t, true)
	ctx := context.Background()

	run, err := e.Publish(ctx, "month", "prices_monthly")
	require.NoError(t, err)
	assert.Equal(t, int64(2), run.Rows)

	adp, err := e.Adapter(ctx)
	require.NoError(t, err)
	rows, err := adp.Query(ctx, `SELECT "year", "quarter", "month", "value" FROM "prices_monthly" ORDER BY "month"`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var got [][]any
	for rows.Next() {
		var year, month int
		var quarter *int
		var value float64
		require.NoError(t, rows.Scan(&year, &quarter, &month, &value))
		assert.Nil(t, quarter)
		got = append(got, []any{year, month, value})
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, [][]any{{2021, 1, 101.5}, {2021, 2, 102.25}}, got)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "macro_quarter", TableName("Quarter"))
	assert.Equal(t, "macro_gdp_by_sector", TableName(" GDP by sector! "))
	assert.Equal(t, "macro_dataset", TableName("***"))
}

func TestFactRows(t *testing.T) {
	rows := FactRows([]core.Observation{
		{Period: core.Period{Year: 2020, Freq: core.Yearly}, Group: "G", Indicator: "I", Value: 1},
		{Period: core.Period{Year: 2020, Sub: 3, Freq: core.Quarterly}, Group: "G", Indicator: "I", Value: 2},
		{Period: core.Period{Year: 2020, Sub: 11, Freq: core.Monthly}, Group: "G", Indicator: "I", Value: 3},
	})

	assert.Equal(t, [][]any{
		{2020, nil, nil, "G", "I", 1.0},
		{2020, 3, nil, "G", "I", 2.0},
		{2020, nil, 11, "G", "I", 3.0},
	}, rows)
}

func TestEngine_LoadSeeds(t *testing.T) {
	e := newTestEngine(t, true)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(e.seedsDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(e.seedsDir, "regions.csv"),
		[]byte("code,name\nUB,Ulaanbaatar\nDA,Darkhan\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(e.seedsDir, "notes.txt"), []byte("skip"), 0o600))

	loaded, err := e.LoadSeeds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"regions"}, loaded)

	adp, err := e.Adapter(ctx)
	require.NoError(t, err)
	meta, err := adp.GetTableMetadata(ctx, "regions")
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.RowCount)
}

func TestEngine_LoadSeedsMissingDir(t *testing.T) {
	e := newTestEngine(t, false)

	loaded, err := e.LoadSeeds(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
