package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// RowPeriod is the period assigned to one raw row. OK is false when the
// row has no valid period and must be excluded.
type RowPeriod struct {
	Period core.Period
	OK     bool
}

// DerivePeriods assigns a canonical period to every row.
//
// Month takes precedence over Quarter, and Quarter over Year alone; a
// sub-period column only counts when at least one of its cells is
// numeric. Rows with non-coercible or out-of-range cells are marked not
// OK rather than defaulted. A *NoValidTimeColumnsError is returned when no
// branch applies, including when the Year column is absent or unusable.
func DerivePeriods(table string, time []TimeColumn) (core.Frequency, []RowPeriod, error) {
	byField := map[core.TimeField]TimeColumn{}
	var fields []core.TimeField
	for _, tc := range time {
		if _, seen := byField[tc.Field]; !seen {
			byField[tc.Field] = tc
			fields = append(fields, tc.Field)
		}
	}

	fail := &NoValidTimeColumnsError{Table: table, Fields: fields}

	years, ok := byField[core.TimeFieldYear]
	if !ok || !anyCoercible(years.Cells, parseYear) {
		return "", nil, fail
	}

	freq := core.Yearly
	var sub TimeColumn
	var parseSub func(string) (int, bool)
	if m, ok := byField[core.TimeFieldMonth]; ok && anyCoercible(m.Cells, parseMonth) {
		freq, sub, parseSub = core.Monthly, m, parseMonth
	} else if q, ok := byField[core.TimeFieldQuarter]; ok && anyCoercible(q.Cells, parseQuarter) {
		freq, sub, parseSub = core.Quarterly, q, parseQuarter
	}

	rows := make([]RowPeriod, len(years.Cells))
	valid := 0
	for r, cell := range years.Cells {
		y, ok := parseYear(cell)
		if !ok {
			continue
		}
		p := core.Period{Year: y, Freq: freq}
		if parseSub != nil {
			n, ok := parseSub(sub.Cells[r])
			if !ok {
				continue
			}
			p.Sub = n
		}
		rows[r] = RowPeriod{Period: p, OK: true}
		valid++
	}

	if valid == 0 {
		return "", nil, fail
	}
	return freq, rows, nil
}

func anyCoercible(cells []string, parse func(string) (int, bool)) bool {
	for _, c := range cells {
		if _, ok := parse(c); ok {
			return true
		}
	}
	return false
}

// parseInt coerces cell text to an integer. Spreadsheet exports often
// render integers as floats ("2021.0"), which are accepted when integral.
func parseInt(cell string) (int, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func parseYear(cell string) (int, bool) {
	y, ok := parseInt(cell)
	if !ok || y < 1000 || y > 9999 {
		return 0, false
	}
	return y, true
}

func parseMonth(cell string) (int, bool) {
	m, ok := parseInt(cell)
	if !ok || m < 1 || m > 12 {
		return 0, false
	}
	return m, true
}

// parseQuarter accepts "3" as well as "Q3".
func parseQuarter(cell string) (int, bool) {
	s := strings.TrimSpace(cell)
	if rest, ok := strings.CutPrefix(strings.ToUpper(s), "Q"); ok {
		s = rest
	}
	q, ok := parseInt(s)
	if !ok || q < 1 || q > 4 {
		return 0, false
	}
	return q, true
}

// thousandsRe matches numbers grouped with comma thousands separators.
var thousandsRe = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

// ParseValue coerces a value cell. Blank, NA-like and non-numeric cells are
// missing. Commas are accepted only as thousands separators, so a
// decimal comma such as "1,5" is missing rather than 15.
func ParseValue(cell string) core.Value {
	s := strings.TrimSpace(cell)
	if isBlankCell(s) {
		return core.Missing
	}
	switch s {
	case "-", "..", "...", "#N/A":
		return core.Missing
	}
	if strings.Contains(s, ",") {
		if !thousandsRe.MatchString(s) {
			return core.Missing
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return core.Missing
	}
	return core.Some(f)
}
