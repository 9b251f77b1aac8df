package core

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeField names a recognized time column.
type TimeField string

// Time fields.
const (
	TimeFieldYear    TimeField = "Year"
	TimeFieldQuarter TimeField = "Quarter"
	TimeFieldMonth   TimeField = "Month"
)

// TimeFields lists the recognized time fields.
var TimeFields = []TimeField{TimeFieldYear, TimeFieldQuarter, TimeFieldMonth}

// ParseTimeField matches a header label against the time field names.
// Surrounding whitespace is ignored; matching is exact otherwise.
func ParseTimeField(label string) (TimeField, bool) {
	switch strings.TrimSpace(label) {
	case string(TimeFieldYear):
		return TimeFieldYear, true
	case string(TimeFieldQuarter):
		return TimeFieldQuarter, true
	case string(TimeFieldMonth):
		return TimeFieldMonth, true
	}
	return "", false
}

// Frequency is the granularity of a dataset's periods.
type Frequency string

// Frequencies.
const (
	Yearly    Frequency = "Yearly"
	Quarterly Frequency = "Quarterly"
	Monthly   Frequency = "Monthly"
)

// ParseFrequency parses a frequency name case-insensitively.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yearly", "annual", "y":
		return Yearly, nil
	case "quarterly", "q":
		return Quarterly, nil
	case "monthly", "m":
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// PeriodsPerYear returns 1, 4 or 12.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case Quarterly:
		return 4
	case Monthly:
		return 12
	default:
		return 1
	}
}

// Period is a canonical time key. Sub is the month (1-12) for monthly
// periods, the quarter (1-4) for quarterly periods and 0 for yearly ones.
type Period struct {
	Year int
	Sub  int
	Freq Frequency
}

// Label renders the canonical label: "2021", "2021-03" or "2021-Q3".
func (p Period) Label() string {
	switch p.Freq {
	case Monthly:
		return fmt.Sprintf("%d-%02d", p.Year, p.Sub)
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", p.Year, p.Sub)
	default:
		return strconv.Itoa(p.Year)
	}
}

func (p Period) String() string {
	return p.Label()
}

// Key returns the numeric sort key of the period.
func (p Period) Key() int {
	return p.Year*100 + p.Sub
}

// Before reports whether p sorts strictly before o.
func (p Period) Before(o Period) bool {
	return p.Key() < o.Key()
}

// YearAgo returns the same sub-period one year earlier.
func (p Period) YearAgo() Period {
	return Period{Year: p.Year - 1, Sub: p.Sub, Freq: p.Freq}
}

// ParsePeriod parses a canonical period label. The frequency is implied
// by the label shape.
func ParsePeriod(label string) (Period, error) {
	s := strings.TrimSpace(label)
	if s == "" {
		return Period{}, fmt.Errorf("empty period label")
	}

	year, rest, hasSub := strings.Cut(s, "-")
	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 || year[0] == '+' {
		return Period{}, fmt.Errorf("invalid period %q: year must have four digits", label)
	}
	if !hasSub {
		return Period{Year: y, Freq: Yearly}, nil
	}

	if q, ok := strings.CutPrefix(strings.ToUpper(rest), "Q"); ok {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 4 {
			return Period{}, fmt.Errorf("invalid period %q: quarter must be Q1-Q4", label)
		}
		return Period{Year: y, Sub: n, Freq: Quarterly}, nil
	}

	m, err := strconv.Atoi(rest)
	if err != nil || m < 1 || m > 12 {
		return Period{}, fmt.Errorf("invalid period %q: month must be 01-12", label)
	}
	return Period{Year: y, Sub: m, Freq: Monthly}, nil
}
