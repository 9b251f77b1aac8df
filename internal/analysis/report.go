package analysis

import (
	"errors"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// KPI is the dashboard card of one indicator. Pointer fields are nil when
// the value is undefined.
type KPI struct {
	Indicator  string   `json:"indicator"`
	Count      int      `json:"count"`
	Last       *float64 `json:"last"`
	LastPeriod string   `json:"last_period,omitempty"`
	Mean       *float64 `json:"mean"`
	Median     *float64 `json:"median"`
	Min        *float64 `json:"min"`
	Max        *float64 `json:"max"`
	StdDev     *float64 `json:"std_dev"`
	Prev       *float64 `json:"prev_pct"`
	YoY        *float64 `json:"yoy_pct"`
	YTD        *float64 `json:"ytd_pct"`
}

// KPIs computes a KPI per indicator of t in column order. Indicators without
// data get a KPI with a zero count.
func KPIs(t *core.PeriodIndexedTable) ([]KPI, error) {
	out := make([]KPI, 0, len(t.Indicators))
	for _, ind := range t.Indicators {
		k := KPI{Indicator: ind}

		s, err := Summarize(t, ind)
		if errors.Is(err, ErrNoData) {
			out = append(out, k)
			continue
		}
		if err != nil {
			return nil, err
		}
		c, err := Changes(t, ind)
		if err != nil {
			return nil, err
		}

		k.Count = s.Count
		k.Last = ptr(s.Last)
		k.LastPeriod = s.LastPeriod.Label()
		k.Mean = ptr(s.Mean)
		k.Median = ptr(s.Median)
		k.Min = ptr(s.Min)
		k.Max = ptr(s.Max)
		if s.Count > 1 {
			k.StdDev = ptr(s.StdDev)
		}
		k.Prev, k.YoY, k.YTD = c.Prev, c.YoY, c.YTD
		out = append(out, k)
	}
	return out, nil
}

func ptr(v float64) *float64 { return &v }
