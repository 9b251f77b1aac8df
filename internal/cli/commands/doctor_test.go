package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macrodash/internal/cli/output"
	"github.com/leapstack-labs/macrodash/internal/cli/testutil"
	"github.com/leapstack-labs/macrodash/internal/engine"
	logtest "github.com/leapstack-labs/macrodash/internal/testutil"
	"github.com/leapstack-labs/macrodash/pkg/adapter"
	"github.com/leapstack-labs/macrodash/pkg/core"
)

// gappyCSV has a period gap, an ungrouped column and an empty indicator.
const gappyCSV = `Year,Quarter,,Prices
,,Level,CPI
2020,1,1,
2020,2,2,
2021,1,3,
`

func newDoctorEngine(t *testing.T, files map[string]string, withTarget bool) *engine.Engine {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o750))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o600))
	}

	cfg := engine.Config{
		Source:    core.SourceConfig{Type: "csv", Path: dataDir},
		StatePath: filepath.Join(dir, ".macrodash", "state.db"),
		Logger:    logtest.NewTestLogger(t),
	}
	if withTarget {
		cfg.AdapterConfig = &adapter.Config{Type: "sqlite", Path: filepath.Join(dir, "warehouse.db")}
	}
	eng, err := engine.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func checkByID(t *testing.T, out *DoctorOutput, id string) HealthCheck {
	t.Helper()
	for _, c := range out.HealthChecks {
		if c.RuleID == id {
			return c
		}
	}
	t.Fatalf("health check %s not reported", id)
	return HealthCheck{}
}

func TestDiagnose_Clean(t *testing.T) {
	eng := newDoctorEngine(t, map[string]string{"quarterly.csv": testutil.QuarterlyCSV}, false)

	out, err := diagnose(context.Background(), eng, false)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Summary.Datasets)
	assert.Equal(t, 1, out.Summary.Loaded)
	assert.Equal(t, 2, out.Summary.Groups)
	assert.Equal(t, 3, out.Summary.Indicators)
	assert.Empty(t, out.Summary.Warehouse)
	assert.Equal(t, 100, out.Score)
	assert.Zero(t, out.IssueCount)
	assert.Empty(t, out.Recommendations)

	for _, c := range out.HealthChecks {
		assert.Equal(t, "pass", c.Status, c.RuleID)
		assert.NotEqual(t, "warehouse", c.Group, "warehouse checks need a target")
	}
}

func TestDiagnose_Problems(t *testing.T) {
	eng := newDoctorEngine(t, map[string]string{
		"quarterly.csv": testutil.QuarterlyCSV,
		"gappy.csv":     gappyCSV,
		"broken.csv":    "foo,bar\nbaz,qux\n1,2\n",
	}, false)

	out, err := diagnose(context.Background(), eng, false)
	require.NoError(t, err)

	assert.Equal(t, 3, out.Summary.Datasets)
	assert.Equal(t, 2, out.Summary.Loaded)

	ds01 := checkByID(t, out, "DS01")
	assert.Equal(t, "error", ds01.Status)
	require.Len(t, ds01.Details, 1)
	assert.Contains(t, ds01.Details[0], "broken:")

	ds02 := checkByID(t, out, "DS02")
	assert.Equal(t, "warn", ds02.Status)
	assert.Equal(t, []string{"gappy: 2 period(s) missing between 2020-Q2 and 2021-Q1"}, ds02.Details)

	ds03 := checkByID(t, out, "DS03")
	require.Len(t, ds03.Details, 1)
	assert.Contains(t, ds03.Details[0], `placed in "Other"`)

	in01 := checkByID(t, out, "IN01")
	assert.Equal(t, []string{"gappy: Prices / CPI has no values"}, in01.Details)

	assert.Equal(t, 4, out.IssueCount)
	assert.Equal(t, 50, out.Score)
	assert.Len(t, out.Recommendations, 4)
}

func TestDiagnose_Warehouse(t *testing.T) {
	eng := newDoctorEngine(t, map[string]string{"quarterly.csv": testutil.QuarterlyCSV}, true)
	ctx := context.Background()

	out, err := diagnose(ctx, eng, true)
	require.NoError(t, err)
	assert.Equal(t, "pass", checkByID(t, out, "WH01").Status)
	wh02 := checkByID(t, out, "WH02")
	assert.Equal(t, []string{"quarterly: never published"}, wh02.Details)

	_, err = eng.Publish(ctx, "quarterly", "")
	require.NoError(t, err)

	out, err = diagnose(ctx, eng, true)
	require.NoError(t, err)
	assert.Equal(t, "pass", checkByID(t, out, "WH02").Status)
	assert.Equal(t, 100, out.Score)
}

func TestPeriodGaps(t *testing.T) {
	m := func(y, mo int) core.Period { return core.Period{Year: y, Sub: mo, Freq: core.Monthly} }
	y := func(year int) core.Period { return core.Period{Year: year, Freq: core.Yearly} }

	assert.Empty(t, periodGaps([]core.Period{m(2020, 11), m(2020, 12), m(2021, 1)}))
	assert.Equal(t, []string{"1 period(s) missing between 2020-12 and 2021-02"},
		periodGaps([]core.Period{m(2020, 12), m(2021, 2)}))
	assert.Equal(t, []string{"2 period(s) missing between 2019 and 2022"},
		periodGaps([]core.Period{y(2019), y(2022)}))
	// Duplicate periods are not gaps.
	assert.Empty(t, periodGaps([]core.Period{y(2019), y(2019), y(2020)}))
}

func TestCalculateHealthScore(t *testing.T) {
	checks := []HealthCheck{
		{Status: "error", IssueCount: 1},
		{Status: "warn", IssueCount: 2},
		{Status: "pass"},
	}
	assert.Equal(t, 60, calculateHealthScore(checks, 1))
	assert.Equal(t, 80, calculateHealthScore(checks, 10))
	assert.Equal(t, 92, calculateHealthScore(checks, 50))
	assert.Equal(t, 0, calculateHealthScore([]HealthCheck{{Status: "error", IssueCount: 9}}, 1))
	assert.Equal(t, 100, calculateHealthScore(nil, 0))
}

func TestRenderDoctor(t *testing.T) {
	eng := newDoctorEngine(t, map[string]string{
		"quarterly.csv": testutil.QuarterlyCSV,
		"gappy.csv":     gappyCSV,
	}, false)
	out, err := diagnose(context.Background(), eng, false)
	require.NoError(t, err)

	tr := testutil.NewTestRendererMarkdown()
	require.NoError(t, renderDoctorMarkdown(tr.Renderer, out))
	md := tr.Output()
	testutil.AssertOutputMode(t, tr, output.ModeMarkdown)
	assert.Contains(t, md, "# macrodash Health Report")
	assert.Contains(t, md, "### Datasets")
	assert.Contains(t, md, "- **[WARN]** DS02: No period gaps (1 issues)")
	assert.Contains(t, md, "## Recommendations")

	tr = testutil.NewTestRenderer(output.ModeText, false)
	require.NoError(t, renderDoctorText(tr.Renderer, out))
	testutil.AssertNoANSI(t, tr.Output())
	assert.Contains(t, tr.Output(), "Health Score: ")
	assert.Contains(t, tr.Output(), "Indicators")
}
