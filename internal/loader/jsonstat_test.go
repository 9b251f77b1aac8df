package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/leapstack-labs/macrodash/pkg/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quarterlyDoc = `{
  "version": "2.0",
  "class": "dataset",
  "label": "Gross domestic product",
  "id": ["Sector", "Indicator", "Time"],
  "size": [2, 1, 3],
  "role": {"time": ["Time"]},
  "dimension": {
    "Sector": {"category": {"index": ["AGR", "MIN"], "label": {"AGR": "Agriculture", "MIN": "Mining"}}},
    "Indicator": {"category": {"index": {"GDP": 0}, "label": {"GDP": "GDP, current prices"}}},
    "Time": {"category": {"index": ["2020-Q4", "2021Q1", "2021Q2"]}}
  },
  "value": [1, 2, null, 10, 20, 30]
}`

const monthlyDoc = `{
  "version": "2.0",
  "class": "dataset",
  "id": ["Period", "Item"],
  "size": [2, 2],
  "dimension": {
    "Period": {"category": {"index": ["2021M01", "2021-02"]}},
    "Item": {"category": {"index": ["cpi", "ppi"], "label": {"cpi": "CPI", "ppi": "PPI"}}}
  },
  "value": {"0": 100.5, "3": 99}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestJSONStatLoader_Quarterly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gdp.json", quarterlyDoc)
	writeFile(t, dir, "cpi.json", monthlyDoc)

	l := &JSONStatLoader{Path: dir, GroupDimension: "sector"}
	ctx := context.Background()

	infos, err := l.Datasets(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "cpi", infos[0].ID)

	raw, err := l.Load(ctx, "gdp")
	require.NoError(t, err)
	assert.Equal(t, []core.Header{
		{Top: "Year"},
		{Top: "Quarter"},
		{Top: "Agriculture", Sub: "GDP, current prices"},
		{Top: "Mining", Sub: "GDP, current prices"},
	}, raw.Headers)
	assert.Equal(t, [][]string{
		{"2020", "4", "1", "10"},
		{"2021", "1", "2", "20"},
		{"2021", "2", "", "30"},
	}, raw.Rows)

	ds, err := normalize.Normalize(raw, normalize.Options{})
	require.NoError(t, err)
	assert.Equal(t, core.Quarterly, ds.Frequency)
	assert.Equal(t, []string{"Agriculture", "Mining"}, ds.Groups())
}

func TestJSONStatLoader_MonthlySparse(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cpi.json", monthlyDoc)

	l := &JSONStatLoader{Path: path}
	raw, err := l.Load(context.Background(), "cpi")
	require.NoError(t, err)

	assert.Equal(t, []core.Header{{Top: "Year"}, {Top: "Month"}, {Sub: "CPI"}, {Sub: "PPI"}}, raw.Headers)
	assert.Equal(t, [][]string{
		{"2021", "1", "100.5", ""},
		{"2021", "2", "", "99"},
	}, raw.Rows)

	series, err := normalize.BuildSeries(raw, normalize.DefaultFallbackGroup, []string{"CPI", "PPI"}, normalize.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-01", "2021-02"}, series.Labels())
}

func periodLabels(ps []core.Period) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Label()
	}
	return out
}

func TestJSONStatLoader_UnresolvableTimeCodes(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantRows  [][]string
		wantFreq  core.Frequency
		wantLabel []string
	}{
		{
			name: "total row",
			doc: `{"label":"GDP","id":["Time"],"size":[3],
				"dimension":{"Time":{"category":{"index":["2020","2021","Total"]}}},
				"value":[10,20,999]}`,
			wantRows:  [][]string{{"2020", "10"}, {"2021", "20"}, {"Total", "999"}},
			wantFreq:  core.Yearly,
			wantLabel: []string{"2020", "2021"},
		},
		{
			name: "year code in monthly document",
			doc: `{"label":"CPI","id":["Time"],"size":[3],
				"dimension":{"Time":{"category":{"index":["2020M12","2021","2021M01"]}}},
				"value":[1,2,3]}`,
			wantRows:  [][]string{{"2020", "12", "1"}, {"2021", "2021", "2"}, {"2021", "1", "3"}},
			wantFreq:  core.Monthly,
			wantLabel: []string{"2020-12", "2021-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &JSONStatLoader{Path: writeFile(t, t.TempDir(), "doc.json", tt.doc)}
			raw, err := l.Load(context.Background(), "doc")
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, raw.Rows)

			ds, err := normalize.Normalize(raw, normalize.Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantFreq, ds.Frequency)
			assert.Equal(t, tt.wantLabel, periodLabels(ds.Periods()))
		})
	}
}

func TestJSONStatLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	tests := []struct {
		name    string
		doc     string
		loader  JSONStatLoader
		wantErr string
	}{
		{
			name:    "no time dimension",
			doc:     `{"id":["A"],"size":[1],"dimension":{"A":{"category":{"index":["x"]}}},"value":[1]}`,
			wantErr: "no time dimension",
		},
		{
			name:    "size mismatch",
			doc:     `{"id":["Time"],"size":[2],"dimension":{"Time":{"category":{"index":["2020"]}}},"value":[1,2]}`,
			wantErr: "size says 2",
		},
		{
			name:    "value count mismatch",
			doc:     `{"id":["Time"],"size":[1],"dimension":{"Time":{"category":{"index":["2020"]}}},"value":[1,2]}`,
			wantErr: "value has 2 entries",
		},
		{
			name:    "unknown group dimension",
			doc:     quarterlyDoc,
			loader:  JSONStatLoader{GroupDimension: "Region"},
			wantErr: `group dimension "Region" not found`,
		},
		{
			name:    "collection class",
			doc:     `{"class":"collection","id":["Time"],"size":[1]}`,
			wantErr: "unsupported json-stat class",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := tt.loader
			l.Path = writeFile(t, dir, "doc.json", tt.doc)
			_, err := l.Load(ctx, "doc")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseTimeCode(t *testing.T) {
	tests := []struct {
		in   string
		want timeCode
	}{
		{"2021", timeCode{year: 2021, ok: true}},
		{"2021Q3", timeCode{year: 2021, quarter: 3, ok: true}},
		{"2021-Q3", timeCode{year: 2021, quarter: 3, ok: true}},
		{"2021 q1", timeCode{year: 2021, quarter: 1, ok: true}},
		{"2021M03", timeCode{year: 2021, month: 3, ok: true}},
		{"2021-11", timeCode{year: 2021, month: 11, ok: true}},
		{"2021M13", timeCode{}},
		{"2021Q5", timeCode{}},
		{"FY2021", timeCode{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTimeCode(tt.in))
		})
	}
}
