package normalize

import (
	"errors"
	"slices"
	"sort"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// Options tunes normalization.
type Options struct {
	// FallbackGroup replaces "Other" as the label of value columns with no
	// preceding named group.
	FallbackGroup string
}

// Dataset is a normalized raw table. It keeps a reference to the raw table
// and never modifies it.
type Dataset struct {
	Name      string
	Frequency core.Frequency

	raw     *core.RawTable
	keys    []core.ColumnKey
	colIdx  []int // raw column index per key
	rows    []int // raw row index per valid row, in period order
	periods []core.Period
}

// Normalize runs the full pipeline over raw.
func Normalize(raw *core.RawTable, opts Options) (*Dataset, error) {
	cols, err := SplitColumns(raw)
	if err != nil {
		return nil, err
	}

	keys := CleanGroupLabels(cols.Values, opts.FallbackGroup)
	filled := ForwardFillTimeBlock(cols.Time)

	freq, rowPeriods, err := DerivePeriods(raw.Name, filled)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Name:      raw.Name,
		Frequency: freq,
		raw:       raw,
		keys:      keys,
		colIdx:    make([]int, len(cols.Values)),
	}
	for i, vc := range cols.Values {
		ds.colIdx[i] = vc.Index
	}
	for r, rp := range rowPeriods {
		if rp.OK {
			ds.rows = append(ds.rows, r)
			ds.periods = append(ds.periods, rp.Period)
		}
	}

	// Stable so duplicate periods keep their row order.
	sort.Stable(byPeriod{ds})
	return ds, nil
}

type byPeriod struct{ ds *Dataset }

func (b byPeriod) Len() int           { return len(b.ds.rows) }
func (b byPeriod) Less(i, j int) bool { return b.ds.periods[i].Before(b.ds.periods[j]) }
func (b byPeriod) Swap(i, j int) {
	b.ds.rows[i], b.ds.rows[j] = b.ds.rows[j], b.ds.rows[i]
	b.ds.periods[i], b.ds.periods[j] = b.ds.periods[j], b.ds.periods[i]
}

// Keys returns every value column key in column order.
func (d *Dataset) Keys() []core.ColumnKey {
	return slices.Clone(d.keys)
}

// Periods returns the valid periods in ascending order.
func (d *Dataset) Periods() []core.Period {
	return slices.Clone(d.periods)
}

// Groups returns the distinct group labels in order of first appearance.
func (d *Dataset) Groups() []string {
	var out []string
	for _, k := range d.keys {
		if !slices.Contains(out, k.Group) {
			out = append(out, k.Group)
		}
	}
	return out
}

// Indicators returns the non-empty indicator labels of a group in column order.
func (d *Dataset) Indicators(group string) []string {
	var out []string
	for _, k := range d.keys {
		if k.Group != group || IsPlaceholder(k.Indicator) {
			continue
		}
		if !slices.Contains(out, k.Indicator) {
			out = append(out, k.Indicator)
		}
	}
	return out
}

// Years returns the distinct years covered, ascending.
func (d *Dataset) Years() []int {
	var out []int
	for _, p := range d.periods {
		if len(out) == 0 || out[len(out)-1] != p.Year {
			out = append(out, p.Year)
		}
	}
	return out
}

func (d *Dataset) column(group, indicator string) int {
	for i, k := range d.keys {
		if k.Group == group && k.Indicator == indicator {
			return d.colIdx[i]
		}
	}
	return -1
}

// Series builds the period-indexed table for the requested indicators of a
// group. Rows stay aligned with the raw rows and are never aggregated; rows
// where every indicator is missing are kept. Requested pairs that do not
// exist are reported as joined *IndicatorNotFoundError values while the
// found indicators are still returned.
func (d *Dataset) Series(group string, indicators []string) (*core.PeriodIndexedTable, error) {
	if len(indicators) == 0 {
		return nil, ErrNoIndicators
	}

	var found []string
	var cols []int
	var errs []error
	for _, ind := range indicators {
		if slices.Contains(found, ind) {
			continue
		}
		c := d.column(group, ind)
		if c < 0 || IsPlaceholder(ind) {
			errs = append(errs, &IndicatorNotFoundError{Group: group, Indicator: ind})
			continue
		}
		found = append(found, ind)
		cols = append(cols, c)
	}

	tbl := &core.PeriodIndexedTable{
		Group:      group,
		Frequency:  d.Frequency,
		Indicators: found,
		Periods:    slices.Clone(d.periods),
		Values:     make([][]core.Value, len(d.rows)),
	}
	for i, r := range d.rows {
		row := make([]core.Value, len(cols))
		for j, c := range cols {
			row[j] = ParseValue(d.raw.Cell(r, c))
		}
		tbl.Values[i] = row
	}

	return tbl, errors.Join(errs...)
}

// GroupSeries builds the table of every indicator in a group.
func (d *Dataset) GroupSeries(group string) (*core.PeriodIndexedTable, error) {
	inds := d.Indicators(group)
	if len(inds) == 0 {
		return nil, &IndicatorNotFoundError{Group: group}
	}
	return d.Series(group, inds)
}

// BuildSeries normalizes raw and returns the series for one group.
func BuildSeries(raw *core.RawTable, group string, indicators []string, opts Options) (*core.PeriodIndexedTable, error) {
	ds, err := Normalize(raw, opts)
	if err != nil {
		return nil, err
	}
	return ds.Series(group, indicators)
}
