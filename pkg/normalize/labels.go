package normalize

import "strings"

// DefaultFallbackGroup labels value columns that have no preceding named group.
const DefaultFallbackGroup = "Other"

// IsPlaceholder reports whether a header label carries no information:
// blank, a NaN rendering, or a pandas-style "Unnamed: N_level_M" label.
func IsPlaceholder(label string) bool {
	s := strings.TrimSpace(label)
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "nan", "none", "null", "<na>":
		return true
	}
	return strings.HasPrefix(s, "Unnamed")
}

// isBlankCell reports whether a time cell is empty.
func isBlankCell(cell string) bool {
	s := strings.TrimSpace(cell)
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "nan", "none", "null", "<na>", "na", "n/a":
		return true
	}
	return false
}
