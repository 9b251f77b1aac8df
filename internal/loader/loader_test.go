package loader

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/macrodash/internal/testutil"
	"github.com/leapstack-labs/macrodash/pkg/adapters/sqlite"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger := testutil.NewTestLogger(t)

	tests := []struct {
		name    string
		cfg     core.SourceConfig
		want    any
		wantErr string
	}{
		{name: "xlsx", cfg: core.SourceConfig{Type: "xlsx", Path: "book.xlsx"}, want: &XLSXLoader{}},
		{name: "excel alias", cfg: core.SourceConfig{Type: "Excel"}, want: &XLSXLoader{}},
		{name: "csv", cfg: core.SourceConfig{Type: "csv", Path: "data"}, want: &CSVLoader{}},
		{name: "jsonstat", cfg: core.SourceConfig{Type: "json-stat"}, want: &JSONStatLoader{}},
		{name: "inferred xlsx", cfg: core.SourceConfig{Path: "assets/Dashboard.XLSX"}, want: &XLSXLoader{}},
		{name: "inferred json", cfg: core.SourceConfig{Path: "api/gdp.json"}, want: &JSONStatLoader{}},
		{name: "inferred csv dir", cfg: core.SourceConfig{Path: "data"}, want: &CSVLoader{}},
		{name: "warehouse without target", cfg: core.SourceConfig{Type: "warehouse"}, wantErr: "requires a configured target"},
		{name: "unknown", cfg: core.SourceConfig{Type: "parquet"}, wantErr: `unknown source type "parquet"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg, nil, logger)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, l)
		})
	}
}

func TestNew_Warehouse(t *testing.T) {
	l, err := New(core.SourceConfig{Type: "warehouse", Tables: []string{"macro_gdp"}}, sqlite.New(nil), nil)
	require.NoError(t, err)
	assert.IsType(t, &WarehouseLoader{}, l)
}

func TestUnknownSourceError(t *testing.T) {
	_, err := New(core.SourceConfig{Type: "parquet"}, nil, nil)

	var use *UnknownSourceError
	require.True(t, errors.As(err, &use))
	assert.Equal(t, "parquet", use.Type)
}

func TestDatasetNotFoundError(t *testing.T) {
	err := notFound("Year", []DatasetInfo{{ID: "quarter"}, {ID: "month"}})

	assert.ErrorIs(t, err, ErrDatasetNotFound)
	assert.EqualError(t, err, `dataset "Year" not found (available: month, quarter)`)
	assert.EqualError(t, &DatasetNotFoundError{ID: "x"}, `dataset "x" not found`)
}

func TestRawFromRecords(t *testing.T) {
	records := [][]string{
		{"Year", "Quarter", "GDP", ""},
		{"", "", "Nominal", "Real"},
		{"2020", "1", "10", "9"},
		{"", "", "", ""},
		{" ", "2", "11"},
	}

	t.Run("two header rows", func(t *testing.T) {
		raw, err := rawFromRecords("q", records, 2)
		require.NoError(t, err)

		assert.Equal(t, []core.Header{
			{Top: "Year"}, {Top: "Quarter"}, {Top: "GDP", Sub: "Nominal"}, {Sub: "Real"},
		}, raw.Headers)
		require.Len(t, raw.Rows, 2, "blank rows are dropped")
		assert.Equal(t, []string{"", "2", "11"}, raw.Rows[1])
	})

	t.Run("default is two header rows", func(t *testing.T) {
		raw, err := rawFromRecords("q", records, 0)
		require.NoError(t, err)
		assert.Len(t, raw.Rows, 2)
	})

	t.Run("one header row", func(t *testing.T) {
		raw, err := rawFromRecords("q", [][]string{{"Year", "CPI"}, {"2020", "1.5"}}, 1)
		require.NoError(t, err)
		assert.Equal(t, []core.Header{{Sub: "Year"}, {Sub: "CPI"}}, raw.Headers)
		assert.Len(t, raw.Rows, 1)
	})

	t.Run("too few rows", func(t *testing.T) {
		_, err := rawFromRecords("q", [][]string{{"Year"}}, 2)
		assert.ErrorContains(t, err, "expected 2 header rows")
	})

	t.Run("invalid header count", func(t *testing.T) {
		_, err := rawFromRecords("q", records, 3)
		assert.ErrorContains(t, err, "header_rows must be 1 or 2")
	})
}
