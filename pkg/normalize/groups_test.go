package normalize

import (
	"testing"

	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/stretchr/testify/assert"
)

func valueCols(headers ...core.Header) []ValueColumn {
	out := make([]ValueColumn, len(headers))
	for i, h := range headers {
		out[i] = ValueColumn{Index: i, Header: h}
	}
	return out
}

func TestCleanGroupLabels(t *testing.T) {
	tests := []struct {
		name     string
		headers  []core.Header
		fallback string
		want     []core.ColumnKey
	}{
		{
			name: "blank inherits preceding group",
			headers: []core.Header{
				{Top: "Output", Sub: "GDP"},
				{Top: "", Sub: "Deflator"},
				{Top: "Prices", Sub: "CPI"},
			},
			want: []core.ColumnKey{
				{Group: "Output", Indicator: "GDP"},
				{Group: "Output", Indicator: "Deflator"},
				{Group: "Prices", Indicator: "CPI"},
			},
		},
		{
			name: "unnamed and nan placeholders",
			headers: []core.Header{
				{Top: "Consumption", Sub: "Household"},
				{Top: "Unnamed: 3_level_0", Sub: "Government"},
				{Top: "nan", Sub: "NPISH"},
			},
			want: []core.ColumnKey{
				{Group: "Consumption", Indicator: "Household"},
				{Group: "Consumption", Indicator: "Government"},
				{Group: "Consumption", Indicator: "NPISH"},
			},
		},
		{
			name: "leading placeholder uses default fallback",
			headers: []core.Header{
				{Top: "", Sub: "Total"},
				{Top: "Output", Sub: "GDP"},
			},
			want: []core.ColumnKey{
				{Group: "Other", Indicator: "Total"},
				{Group: "Output", Indicator: "GDP"},
			},
		},
		{
			name:     "custom fallback",
			headers:  []core.Header{{Top: "Unnamed: 0_level_0", Sub: "Total"}},
			fallback: "Misc",
			want:     []core.ColumnKey{{Group: "Misc", Indicator: "Total"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanGroupLabels(valueCols(tt.headers...), tt.fallback)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanGroupLabels_NeverTouchesIndicators(t *testing.T) {
	headers := []core.Header{
		{Top: "Output", Sub: "GDP"},
		{Top: "", Sub: ""},
		{Top: "", Sub: "Unnamed: 2_level_1"},
	}
	got := CleanGroupLabels(valueCols(headers...), "")

	for i, k := range got {
		assert.Equal(t, headers[i].Sub, k.Indicator)
		assert.Equal(t, "Output", k.Group)
	}
}
