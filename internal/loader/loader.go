// Package loader reads raw datasets from spreadsheets, CSV files, JSON-stat
// documents and warehouse fact tables into core.RawTable values.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/adapter"
	"github.com/leapstack-labs/macrodash/pkg/core"
)

// Source types.
const (
	SourceXLSX      = "xlsx"
	SourceCSV       = "csv"
	SourceJSONStat  = "jsonstat"
	SourceWarehouse = "warehouse"
)

// ErrDatasetNotFound is matched by DatasetNotFoundError.
var ErrDatasetNotFound = errors.New("dataset not found")

// DatasetInfo describes one dataset a loader can provide.
type DatasetInfo struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// Loader provides raw datasets by id.
type Loader interface {
	// Datasets lists the datasets available from the source.
	Datasets(ctx context.Context) ([]DatasetInfo, error)
	// Load reads one dataset.
	Load(ctx context.Context, id string) (*core.RawTable, error)
}

// UnknownSourceError is returned by New for an unsupported source type.
type UnknownSourceError struct {
	Type string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source type %q (supported: %s)", e.Type,
		strings.Join([]string{SourceXLSX, SourceCSV, SourceJSONStat, SourceWarehouse}, ", "))
}

// DatasetNotFoundError is returned when a dataset id does not exist in the source.
type DatasetNotFoundError struct {
	ID        string
	Available []string
}

func (e *DatasetNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("dataset %q not found", e.ID)
	}
	return fmt.Sprintf("dataset %q not found (available: %s)", e.ID, strings.Join(e.Available, ", "))
}

// Is reports whether target is ErrDatasetNotFound.
func (e *DatasetNotFoundError) Is(target error) bool {
	return target == ErrDatasetNotFound
}

// New selects a loader for cfg. The adapter is only required for warehouse
// sources. An empty source type is inferred from the path.
func New(cfg core.SourceConfig, adp adapter.Adapter, logger *slog.Logger) (Loader, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typ == "" {
		typ = InferType(cfg.Path)
	}

	switch typ {
	case SourceXLSX, "excel":
		return &XLSXLoader{Path: cfg.Path, Sheets: cfg.Sheets, HeaderRows: cfg.HeaderRows, Logger: logger}, nil
	case SourceCSV:
		return &CSVLoader{Path: cfg.Path, HeaderRows: cfg.HeaderRows, Logger: logger}, nil
	case SourceJSONStat, "json-stat":
		return &JSONStatLoader{
			Path:           cfg.Path,
			TimeDimension:  cfg.TimeDimension,
			GroupDimension: cfg.GroupDimension,
			Logger:         logger,
		}, nil
	case SourceWarehouse:
		if adp == nil {
			return nil, fmt.Errorf("warehouse source requires a configured target")
		}
		return &WarehouseLoader{Adapter: adp, Tables: cfg.Tables, Logger: logger}, nil
	default:
		return nil, &UnknownSourceError{Type: cfg.Type}
	}
}

// InferType guesses a source type from a file extension. Paths without a
// recognized extension are treated as CSV directories.
func InferType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx":
		return SourceXLSX
	case ".json":
		return SourceJSONStat
	default:
		return SourceCSV
	}
}

func notFound(id string, infos []DatasetInfo) error {
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	sort.Strings(ids)
	return &DatasetNotFoundError{ID: id, Available: ids}
}

// rawFromRecords turns header rows plus data rows into a RawTable. With one
// header row the label becomes the header's second level so that it is read
// as an indicator (or time field) with no group.
func rawFromRecords(name string, records [][]string, headerRows int) (*core.RawTable, error) {
	if headerRows <= 0 {
		headerRows = 2
	}
	if headerRows > 2 {
		return nil, fmt.Errorf("%s: header_rows must be 1 or 2, got %d", name, headerRows)
	}
	if len(records) < headerRows {
		return nil, fmt.Errorf("%s: expected %d header rows, found %d rows", name, headerRows, len(records))
	}

	width := 0
	for _, r := range records {
		width = max(width, len(r))
	}

	cell := func(r []string, i int) string {
		if i < len(r) {
			return strings.TrimSpace(r[i])
		}
		return ""
	}

	headers := make([]core.Header, width)
	for i := range headers {
		if headerRows == 1 {
			headers[i] = core.Header{Sub: cell(records[0], i)}
		} else {
			headers[i] = core.Header{Top: cell(records[0], i), Sub: cell(records[1], i)}
		}
	}

	raw := &core.RawTable{Name: name, Headers: headers}
	for _, r := range records[headerRows:] {
		if blankRecord(r) {
			continue
		}
		row := make([]string, len(r))
		for i := range r {
			row[i] = cell(r, i)
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw, nil
}

func blankRecord(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
