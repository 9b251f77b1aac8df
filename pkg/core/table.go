package core

import "strings"

// Header is the two-level label of a raw table column.
// Value columns carry (group, indicator); time columns carry a time field
// name on either level.
type Header struct {
	Top string
	Sub string
}

// String renders the header as "top / sub", omitting blank levels.
func (h Header) String() string {
	top, sub := strings.TrimSpace(h.Top), strings.TrimSpace(h.Sub)
	switch {
	case top == "":
		return sub
	case sub == "":
		return top
	default:
		return top + " / " + sub
	}
}

// RawTable is a dataset as loaded from its source, before normalization.
// Rows hold raw cell text; a blank cell is an empty string. Rows may be
// shorter than Headers, missing trailing cells read as blank.
type RawTable struct {
	Name    string
	Headers []Header
	Rows    [][]string
}

// Cell returns the raw text at (row, col), or "" when out of range.
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// NumRows returns the number of data rows.
func (t *RawTable) NumRows() int {
	return len(t.Rows)
}

// ColumnKey identifies a value column after group labels are cleaned.
type ColumnKey struct {
	Group     string
	Indicator string
}

func (k ColumnKey) String() string {
	return k.Group + " / " + k.Indicator
}
