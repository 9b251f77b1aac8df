package core

import (
	"math"
	"slices"
)

// Value is a possibly-missing numeric observation.
// A missing value is never equivalent to zero.
type Value struct {
	Float float64
	Valid bool
}

// Some returns a present value.
func Some(f float64) Value {
	return Value{Float: f, Valid: true}
}

// Missing is the missing value.
var Missing = Value{}

// OrNaN returns the value or NaN when missing.
func (v Value) OrNaN() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float
}

// PeriodIndexedTable holds one group's indicators keyed by period.
// Values[i][j] is the value of Indicators[j] at Periods[i]. Periods are
// sorted ascending by their numeric key.
type PeriodIndexedTable struct {
	Group      string
	Frequency  Frequency
	Indicators []string
	Periods    []Period
	Values     [][]Value
}

// Len returns the number of period rows.
func (t *PeriodIndexedTable) Len() int {
	return len(t.Periods)
}

// IndicatorIndex returns the column index of an indicator, or -1.
func (t *PeriodIndexedTable) IndicatorIndex(indicator string) int {
	return slices.Index(t.Indicators, indicator)
}

// Column returns the values of one indicator in period order.
func (t *PeriodIndexedTable) Column(indicator string) ([]Value, bool) {
	j := t.IndicatorIndex(indicator)
	if j < 0 {
		return nil, false
	}
	col := make([]Value, len(t.Periods))
	for i := range t.Periods {
		col[i] = t.Values[i][j]
	}
	return col, true
}

// Lookup returns the value of an indicator at the first row for period p.
func (t *PeriodIndexedTable) Lookup(p Period, indicator string) (Value, bool) {
	j := t.IndicatorIndex(indicator)
	if j < 0 {
		return Missing, false
	}
	for i, q := range t.Periods {
		if q.Key() == p.Key() {
			return t.Values[i][j], true
		}
	}
	return Missing, false
}

// Labels returns the canonical label of every row.
func (t *PeriodIndexedTable) Labels() []string {
	out := make([]string, len(t.Periods))
	for i, p := range t.Periods {
		out[i] = p.Label()
	}
	return out
}

// filter returns a copy that keeps the rows for which keep returns true.
func (t *PeriodIndexedTable) filter(keep func(i int) bool) *PeriodIndexedTable {
	out := &PeriodIndexedTable{
		Group:      t.Group,
		Frequency:  t.Frequency,
		Indicators: slices.Clone(t.Indicators),
	}
	for i := range t.Periods {
		if !keep(i) {
			continue
		}
		out.Periods = append(out.Periods, t.Periods[i])
		out.Values = append(out.Values, slices.Clone(t.Values[i]))
	}
	return out
}

// DropEmpty returns a copy without rows where every indicator is missing.
func (t *PeriodIndexedTable) DropEmpty() *PeriodIndexedTable {
	return t.filter(func(i int) bool {
		return slices.ContainsFunc(t.Values[i], func(v Value) bool { return v.Valid })
	})
}

// Between returns a copy restricted to periods within [from, to].
// A nil bound is open.
func (t *PeriodIndexedTable) Between(from, to *Period) *PeriodIndexedTable {
	return t.filter(func(i int) bool {
		k := t.Periods[i].Key()
		if from != nil && k < from.Key() {
			return false
		}
		if to != nil && k > to.Key() {
			return false
		}
		return true
	})
}

// Observation is one present value in long form.
type Observation struct {
	Period    Period
	Group     string
	Indicator string
	Value     float64
}
