package output

import (
	"time"

	"github.com/leapstack-labs/macrodash/internal/analysis"
)

// DatasetInfo describes one dataset in `datasets` output.
type DatasetInfo struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Frequency string `json:"frequency,omitempty"`
	Periods   int    `json:"periods"`
	First     string `json:"first,omitempty"`
	Last      string `json:"last,omitempty"`
	Groups    int    `json:"groups"`
	Error     string `json:"error,omitempty"`
}

// DatasetsOutput is the JSON shape of `datasets`.
type DatasetsOutput struct {
	Datasets []DatasetInfo `json:"datasets"`
}

// GroupInfo lists the indicators of one group.
type GroupInfo struct {
	Name       string   `json:"name"`
	Indicators []string `json:"indicators"`
}

// GroupsOutput is the JSON shape of `groups`.
type GroupsOutput struct {
	Dataset   string      `json:"dataset"`
	Frequency string      `json:"frequency"`
	Groups    []GroupInfo `json:"groups"`
}

// KPIOutput is the JSON shape of `kpi`.
type KPIOutput struct {
	Dataset    string         `json:"dataset"`
	Group      string         `json:"group"`
	Indicators []analysis.KPI `json:"indicators"`
}

// PublishInfo describes one publish run.
type PublishInfo struct {
	ID          string     `json:"id"`
	Dataset     string     `json:"dataset"`
	Table       string     `json:"table"`
	Status      string     `json:"status"`
	Rows        int64      `json:"rows"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// LoadInfo describes one recorded dataset load.
type LoadInfo struct {
	Dataset    string    `json:"dataset"`
	Source     string    `json:"source"`
	Frequency  string    `json:"frequency"`
	Rows       int       `json:"rows"`
	Groups     int       `json:"groups"`
	Indicators int       `json:"indicators"`
	First      string    `json:"first"`
	Last       string    `json:"last"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// HistoryOutput is the JSON shape of `history`.
type HistoryOutput struct {
	Loads     []LoadInfo    `json:"loads"`
	Publishes []PublishInfo `json:"publishes"`
}

// SeedOutput is the JSON shape of `seed`.
type SeedOutput struct {
	Directory string   `json:"directory"`
	Seeds     []string `json:"seeds"`
}
