// Package analysis computes dashboard KPIs over period-indexed series.
package analysis

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// ErrNoData is returned when an indicator has no present values.
var ErrNoData = errors.New("no data")

// Summary holds descriptive statistics of one indicator. Missing values
// are ignored throughout.
type Summary struct {
	Indicator  string
	Count      int
	Last       float64
	LastPeriod core.Period
	Mean       float64
	Median     float64
	Min        float64
	Max        float64
	// StdDev is the sample standard deviation; zero when Count < 2.
	StdDev float64
}

// present returns the present values of an indicator with their periods.
func present(t *core.PeriodIndexedTable, indicator string) ([]float64, []core.Period, error) {
	col, ok := t.Column(indicator)
	if !ok {
		return nil, nil, fmt.Errorf("indicator %q not in table", indicator)
	}
	var xs []float64
	var ps []core.Period
	for i, v := range col {
		if v.Valid {
			xs = append(xs, v.Float)
			ps = append(ps, t.Periods[i])
		}
	}
	if len(xs) == 0 {
		return nil, nil, fmt.Errorf("indicator %q: %w", indicator, ErrNoData)
	}
	return xs, ps, nil
}

// Summarize computes the summary statistics of an indicator.
func Summarize(t *core.PeriodIndexedTable, indicator string) (Summary, error) {
	xs, ps, err := present(t, indicator)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Indicator:  indicator,
		Count:      len(xs),
		Last:       xs[len(xs)-1],
		LastPeriod: ps[len(ps)-1],
		Mean:       stat.Mean(xs, nil),
		Median:     median(xs),
		Min:        floats.Min(xs),
		Max:        floats.Max(xs),
	}
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	return s, nil
}

// SummarizeAll summarizes every indicator of t, skipping those with no data.
func SummarizeAll(t *core.PeriodIndexedTable) []Summary {
	var out []Summary
	for _, ind := range t.Indicators {
		s, err := Summarize(t, ind)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// median averages the two middle values for an even count.
func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
