package analysis

import "github.com/leapstack-labs/macrodash/pkg/core"

// Change holds percentage changes of the latest observation of an
// indicator. A nil field means the base is missing or zero.
type Change struct {
	Indicator string
	Period    core.Period
	Value     float64

	// Prev compares against the previous present observation.
	Prev *float64
	// YoY compares against the same sub-period one year earlier.
	YoY *float64
	// YTD compares against the first observation of the latest year.
	YTD *float64
}

// Changes computes the changes of an indicator at its latest observation.
func Changes(t *core.PeriodIndexedTable, indicator string) (Change, error) {
	xs, ps, err := present(t, indicator)
	if err != nil {
		return Change{}, err
	}

	n := len(xs)
	c := Change{Indicator: indicator, Period: ps[n-1], Value: xs[n-1]}

	if n > 1 {
		c.Prev = pctChange(xs[n-2], c.Value)
	}

	target := c.Period.YearAgo()
	for i := n - 2; i >= 0; i-- {
		if ps[i].Key() == target.Key() {
			c.YoY = pctChange(xs[i], c.Value)
			break
		}
	}

	// Yearly data has a single observation per year, so YTD is undefined.
	if c.Period.Freq != core.Yearly {
		for i := 0; i < n-1; i++ {
			if ps[i].Year == c.Period.Year {
				c.YTD = pctChange(xs[i], c.Value)
				break
			}
		}
	}
	return c, nil
}

func pctChange(base, v float64) *float64 {
	if base == 0 {
		return nil
	}
	pct := (v - base) / base * 100
	return &pct
}
