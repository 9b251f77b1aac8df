package normalize

import (
	"slices"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// TimeColumn is a raw time column and its cells in row order.
type TimeColumn struct {
	Field core.TimeField
	Index int
	Cells []string
}

// ValueColumn is a raw value column before group labels are cleaned.
type ValueColumn struct {
	Index  int
	Header core.Header
}

// Columns is the disjoint partition of a raw table's columns.
type Columns struct {
	Time   []TimeColumn
	Values []ValueColumn
}

// Field returns the first time column for f.
func (c *Columns) Field(f core.TimeField) (TimeColumn, bool) {
	for _, tc := range c.Time {
		if tc.Field == f {
			return tc, true
		}
	}
	return TimeColumn{}, false
}

// Fields returns the distinct time fields in column order.
func (c *Columns) Fields() []core.TimeField {
	var out []core.TimeField
	for _, tc := range c.Time {
		if !slices.Contains(out, tc.Field) {
			out = append(out, tc.Field)
		}
	}
	return out
}

// timeFieldOf classifies a header. The top label decides when it names a
// time field; a placeholder top defers to the sub label.
func timeFieldOf(h core.Header) (core.TimeField, bool) {
	if f, ok := core.ParseTimeField(h.Top); ok {
		return f, true
	}
	if IsPlaceholder(h.Top) {
		return core.ParseTimeField(h.Sub)
	}
	return "", false
}

// SplitColumns partitions the columns of raw into time and value columns.
// It fails with a *SchemaError when no column is named Year, Month or Quarter.
func SplitColumns(raw *core.RawTable) (*Columns, error) {
	cols := &Columns{}
	for i, h := range raw.Headers {
		f, ok := timeFieldOf(h)
		if !ok {
			cols.Values = append(cols.Values, ValueColumn{Index: i, Header: h})
			continue
		}
		cells := make([]string, raw.NumRows())
		for r := range cells {
			cells[r] = raw.Cell(r, i)
		}
		cols.Time = append(cols.Time, TimeColumn{Field: f, Index: i, Cells: cells})
	}

	if len(cols.Time) == 0 {
		headers := make([]string, len(raw.Headers))
		for i, h := range raw.Headers {
			headers[i] = h.String()
		}
		return nil, &SchemaError{Table: raw.Name, Headers: headers}
	}
	return cols, nil
}
