package normalize

// ForwardFillTimeBlock fills blank time cells with the last non-blank cell
// above them, column by column. Blanks before the first value stay blank.
// The input is not modified, and filling twice equals filling once.
func ForwardFillTimeBlock(cols []TimeColumn) []TimeColumn {
	out := make([]TimeColumn, len(cols))
	for i, tc := range cols {
		filled := make([]string, len(tc.Cells))
		last := ""
		for r, cell := range tc.Cells {
			if isBlankCell(cell) {
				filled[r] = last
				continue
			}
			last = cell
			filled[r] = cell
		}
		out[i] = TimeColumn{Field: tc.Field, Index: tc.Index, Cells: filled}
	}
	return out
}
