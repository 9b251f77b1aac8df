package normalize

import "github.com/leapstack-labs/macrodash/pkg/core"

// Melt converts a period-indexed table to long form, one observation per
// present value, in period order then indicator order. Missing values are
// dropped rather than emitted as zero.
func Melt(t *core.PeriodIndexedTable) []core.Observation {
	var out []core.Observation
	for i, p := range t.Periods {
		for j, ind := range t.Indicators {
			v := t.Values[i][j]
			if !v.Valid {
				continue
			}
			out = append(out, core.Observation{
				Period:    p,
				Group:     t.Group,
				Indicator: ind,
				Value:     v.Float,
			})
		}
	}
	return out
}

// MeltDataset melts every group of a dataset.
func MeltDataset(d *Dataset) []core.Observation {
	var out []core.Observation
	for _, g := range d.Groups() {
		tbl, err := d.GroupSeries(g)
		if err != nil {
			continue
		}
		out = append(out, Melt(tbl)...)
	}
	return out
}
