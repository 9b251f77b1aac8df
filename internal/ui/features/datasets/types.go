package datasets

import (
	"github.com/leapstack-labs/macrodash/internal/analysis"
	"github.com/leapstack-labs/macrodash/internal/export"
)

// Summary is one entry of the dataset list.
type Summary struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Frequency string `json:"frequency,omitempty"`
	Periods   int    `json:"periods"`
	First     string `json:"first,omitempty"`
	Last      string `json:"last,omitempty"`
	Groups    int    `json:"groups"`
	Error     string `json:"error,omitempty"`
}

// Group lists the indicators of one group.
type Group struct {
	Name       string   `json:"name"`
	Indicators []string `json:"indicators"`
}

// Detail describes one dataset.
type Detail struct {
	ID        string  `json:"id"`
	Frequency string  `json:"frequency"`
	Periods   int     `json:"periods"`
	First     string  `json:"first,omitempty"`
	Last      string  `json:"last,omitempty"`
	Years     []int   `json:"years"`
	Groups    []Group `json:"groups"`
}

// SeriesResponse is a period-indexed table. Missing lists requested
// indicators that do not exist in the group.
type SeriesResponse struct {
	export.Document
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// KPIResponse holds the KPI cards of a selection.
type KPIResponse struct {
	Dataset string         `json:"dataset"`
	Group   string         `json:"group"`
	From    string         `json:"from,omitempty"`
	To      string         `json:"to,omitempty"`
	KPIs    []analysis.KPI `json:"kpis"`
	Missing []string       `json:"missing,omitempty"`
}

// PreviewResponse holds the first rows of a whole group.
type PreviewResponse struct {
	Dataset string `json:"dataset"`
	Total   int    `json:"total"`
	export.Document
}
