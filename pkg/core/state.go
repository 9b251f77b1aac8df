package core

import "time"

// Store defines the interface for state management operations.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Load operations
	RecordLoad(rec *LoadRecord) error
	ListLoads(datasetID string, limit int) ([]*LoadRecord, error)
	GetLatestLoad(datasetID string) (*LoadRecord, error)

	// Publish operations
	CreatePublish(datasetID, table string) (*PublishRun, error)
	CompletePublish(id string, status RunStatus, rows int64, errMsg string) error
	GetPublish(id string) (*PublishRun, error)
	ListPublishes(limit int) ([]*PublishRun, error)
}

// LoadRecord records one successful normalization of a dataset.
type LoadRecord struct {
	ID         string
	DatasetID  string
	Source     string
	Frequency  Frequency
	Rows       int
	Groups     int
	Indicators int
	FirstLabel string
	LastLabel  string
	LoadedAt   time.Time
}

// RunStatus represents the status of a publish run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// PublishRun records one export of long-form observations to the warehouse.
type PublishRun struct {
	ID          string
	DatasetID   string
	Table       string
	Status      RunStatus
	Rows        int64
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}
