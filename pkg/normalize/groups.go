package normalize

import "github.com/leapstack-labs/macrodash/pkg/core"

// CleanGroupLabels resolves the group label of every value column.
// Placeholder group labels take the nearest preceding named group in
// column order, or fallback when there is none ("Other" if fallback is
// empty). Indicator labels are returned unchanged.
func CleanGroupLabels(values []ValueColumn, fallback string) []core.ColumnKey {
	if fallback == "" {
		fallback = DefaultFallbackGroup
	}

	keys := make([]core.ColumnKey, len(values))
	current := ""
	for i, vc := range values {
		if !IsPlaceholder(vc.Header.Top) {
			current = vc.Header.Top
		}
		group := current
		if group == "" {
			group = fallback
		}
		keys[i] = core.ColumnKey{Group: group, Indicator: vc.Header.Sub}
	}
	return keys
}
