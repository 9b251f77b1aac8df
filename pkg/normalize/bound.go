package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// ParseBound parses a time-range bound for a dataset of the given
// frequency. A bare year is widened to the first sub-period of the year
// for a start bound and the last one for an end bound. An empty label
// yields a nil (open) bound.
func ParseBound(label string, freq core.Frequency, end bool) (*core.Period, error) {
	s := strings.TrimSpace(label)
	if s == "" {
		return nil, nil
	}

	if isYear(s) {
		y, _ := strconv.Atoi(s)
		p := core.Period{Year: y, Freq: freq}
		if freq != core.Yearly {
			p.Sub = 1
			if end {
				p.Sub = freq.PeriodsPerYear()
			}
		}
		return &p, nil
	}

	p, err := core.ParsePeriod(s)
	if err != nil {
		return nil, err
	}
	if p.Freq != freq {
		return nil, fmt.Errorf("bound %q is %s but the dataset is %s", label, p.Freq, freq)
	}
	return &p, nil
}

// isYear reports whether s is exactly four ASCII digits.
func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Between filters t to the inclusive range given by two bound labels.
func Between(t *core.PeriodIndexedTable, from, to string) (*core.PeriodIndexedTable, error) {
	lo, err := ParseBound(from, t.Frequency, false)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}
	hi, err := ParseBound(to, t.Frequency, true)
	if err != nil {
		return nil, fmt.Errorf("invalid end: %w", err)
	}
	if lo != nil && hi != nil && hi.Before(*lo) {
		return nil, fmt.Errorf("end %s is before start %s", hi.Label(), lo.Label())
	}
	return t.Between(lo, hi), nil
}
