package normalize

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSeries_QuarterlyScenario(t *testing.T) {
	raw := table("Quarter",
		[]string{"Year|", "Quarter|", "Output|GDP"},
		[]string{"2020", "1", "100"},
		[]string{"2020", "2", "110"},
	)

	tbl, err := BuildSeries(raw, "Output", []string{"GDP"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, core.Quarterly, tbl.Frequency)
	assert.Equal(t, []string{"2020-Q1", "2020-Q2"}, tbl.Labels())
	col, ok := tbl.Column("GDP")
	require.True(t, ok)
	assert.Equal(t, []core.Value{core.Some(100), core.Some(110)}, col)
}

func TestBuildSeries_MergedYearBlock(t *testing.T) {
	raw := table("Month",
		[]string{"Year|", "Month|", "Prices|CPI"},
		[]string{"2021", "1", "5"},
		[]string{"", "2", "6"},
	)

	tbl, err := BuildSeries(raw, "Prices", []string{"CPI"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-01", "2021-02"}, tbl.Labels())
}

func TestBuildSeries_MissingIndicator(t *testing.T) {
	raw := table("Year",
		[]string{"Year|", "Output|GDP", "|Deflator", "Prices|CPI"},
		[]string{"2019", "1", "2", "3"},
		[]string{"2020", "4", "5", "6"},
	)

	tbl, err := BuildSeries(raw, "Output", []string{"GDP", "XYZ", "Deflator"}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndicatorNotFound))
	assert.True(t, OnlyMissingIndicators(err))
	assert.Equal(t, []core.ColumnKey{{Group: "Output", Indicator: "XYZ"}}, MissingIndicators(err))

	require.NotNil(t, tbl)
	assert.Equal(t, []string{"GDP", "Deflator"}, tbl.Indicators)
	deflator, _ := tbl.Column("Deflator")
	assert.Equal(t, []core.Value{core.Some(2), core.Some(5)}, deflator)
}

func TestBuildSeries_IndicatorFromOtherGroup(t *testing.T) {
	raw := table("Year", []string{"Year|", "Output|GDP", "Prices|CPI"}, []string{"2019", "1", "2"})

	_, err := BuildSeries(raw, "Output", []string{"CPI"}, Options{})
	assert.Equal(t, []core.ColumnKey{{Group: "Output", Indicator: "CPI"}}, MissingIndicators(err))
}

func TestBuildSeries_NoIndicators(t *testing.T) {
	raw := table("Year", []string{"Year|", "Output|GDP"}, []string{"2019", "1"})

	_, err := BuildSeries(raw, "Output", nil, Options{})
	assert.ErrorIs(t, err, ErrNoIndicators)
}

func TestBuildSeries_SchemaError(t *testing.T) {
	raw := table("bad", []string{"Output|GDP"}, []string{"1"})

	_, err := BuildSeries(raw, "Output", []string{"GDP"}, Options{})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestBuildSeries_SortsNumerically(t *testing.T) {
	raw := table("Month",
		[]string{"Year|", "Month|", "Prices|CPI"},
		[]string{"2021", "10", "10"},
		[]string{"2021", "2", "2"},
		[]string{"2020", "12", "0"},
		[]string{"2021", "1", "1"},
	)

	tbl, err := BuildSeries(raw, "Prices", []string{"CPI"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2020-12", "2021-01", "2021-02", "2021-10"}, tbl.Labels())
	col, _ := tbl.Column("CPI")
	assert.Equal(t, []core.Value{core.Some(0), core.Some(1), core.Some(2), core.Some(10)}, col)
}

func TestBuildSeries_RetainsEmptyRowsAndDropsInvalidPeriods(t *testing.T) {
	raw := table("Quarter",
		[]string{"Year|", "Quarter|", "Output|GDP", "|Deflator"},
		[]string{"", "1", "9", "9"},
		[]string{"2020", "1", "1", ""},
		[]string{"", "2", "", ""},
		[]string{"", "x", "7", "7"},
		[]string{"", "3", "3", "4"},
	)

	tbl, err := BuildSeries(raw, "Output", []string{"GDP", "Deflator"}, Options{})
	require.NoError(t, err)

	assert.LessOrEqual(t, tbl.Len(), raw.NumRows())
	assert.Equal(t, []string{"2020-Q1", "2020-Q2", "2020-Q3"}, tbl.Labels())
	assert.Equal(t, []core.Value{core.Missing, core.Missing}, tbl.Values[1], "all-missing row is kept, not zero-filled")
	assert.Equal(t, []string{"2020-Q1", "2020-Q3"}, tbl.DropEmpty().Labels())
}

func TestBuildSeries_DuplicatePeriodsAreNotAggregated(t *testing.T) {
	raw := table("Year",
		[]string{"Year|", "Output|GDP"},
		[]string{"2020", "1"},
		[]string{"2020", "2"},
	)

	tbl, err := BuildSeries(raw, "Output", []string{"GDP"}, Options{})
	require.NoError(t, err)
	col, _ := tbl.Column("GDP")
	assert.Equal(t, []core.Value{core.Some(1), core.Some(2)}, col)
}

func TestBuildSeries_RoundTrip(t *testing.T) {
	raw := table("Quarter",
		[]string{"Year|", "Quarter|", "Output|GDP", "|Deflator", "Prices|CPI"},
		[]string{"2019", "3", "10", "1.5", "100"},
		[]string{"2019", "4", "11", "1.6", "101"},
		[]string{"2020", "1", "12", "1.7", "102"},
	)
	ds, err := Normalize(raw, Options{})
	require.NoError(t, err)

	for _, group := range ds.Groups() {
		tbl, err := ds.Series(group, ds.Indicators(group))
		require.NoError(t, err)

		for r, row := range raw.Rows {
			p, err := core.ParsePeriod(row[0] + "-Q" + row[1])
			require.NoError(t, err)
			for _, ind := range tbl.Indicators {
				c := -1
				for i, h := range raw.Headers {
					if h.Sub == ind {
						c = i
					}
				}
				v, ok := tbl.Lookup(p, ind)
				require.True(t, ok)
				assert.Equal(t, ParseValue(raw.Rows[r][c]), v)
			}
		}
	}
}

func TestDataset_GroupsAndIndicators(t *testing.T) {
	raw := table("Quarter",
		[]string{"Year|", "Quarter|", "|Total", "Output|GDP", "|Deflator", "Prices|CPI", "|", "Output|GDP"},
		[]string{"2020", "1", "1", "2", "3", "4", "5", "6"},
		[]string{"2019", "4", "1", "2", "3", "4", "5", "6"},
	)
	ds, err := Normalize(raw, Options{FallbackGroup: "Misc"})
	require.NoError(t, err)

	assert.Equal(t, "Quarter", ds.Name)
	assert.Equal(t, []string{"Misc", "Output", "Prices"}, ds.Groups())
	assert.Equal(t, []string{"GDP", "Deflator"}, ds.Indicators("Output"), "duplicate indicator listed once")
	assert.Equal(t, []string{"CPI"}, ds.Indicators("Prices"), "blank indicator skipped")
	assert.Empty(t, ds.Indicators("Nope"))
	assert.Equal(t, []int{2019, 2020}, ds.Years())
	assert.Len(t, ds.Keys(), 6)

	gdp, err := ds.Series("Output", []string{"GDP"})
	require.NoError(t, err)
	col, _ := gdp.Column("GDP")
	assert.Equal(t, []core.Value{core.Some(2), core.Some(2)}, col, "first matching column wins")

	_, err = ds.GroupSeries("Nope")
	assert.ErrorIs(t, err, ErrIndicatorNotFound)
}
