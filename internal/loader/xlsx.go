package loader

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/xuri/excelize/v2"
)

// XLSXLoader exposes each worksheet of a workbook as a dataset.
type XLSXLoader struct {
	Path string
	// Sheets restricts the exposed sheets, matched case-insensitively.
	// Empty exposes every sheet.
	Sheets     []string
	HeaderRows int
	Logger     *slog.Logger
}

func (l *XLSXLoader) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(l.Path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", l.Path, err)
	}
	return f, nil
}

func (l *XLSXLoader) allowed(sheet string) bool {
	if len(l.Sheets) == 0 {
		return true
	}
	for _, s := range l.Sheets {
		if strings.EqualFold(strings.TrimSpace(s), sheet) {
			return true
		}
	}
	return false
}

// Datasets lists the allowed sheets in workbook order.
func (l *XLSXLoader) Datasets(ctx context.Context) ([]DatasetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := l.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return l.sheets(f), nil
}

func (l *XLSXLoader) sheets(f *excelize.File) []DatasetInfo {
	var out []DatasetInfo
	for _, name := range f.GetSheetList() {
		if l.allowed(name) {
			out = append(out, DatasetInfo{ID: name, Source: l.Path})
		}
	}
	return out
}

// Load reads one sheet.
func (l *XLSXLoader) Load(ctx context.Context, id string) (*core.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := l.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if idx, _ := f.GetSheetIndex(id); idx < 0 || !l.allowed(id) {
		return nil, notFound(id, l.sheets(f))
	}

	records, err := f.GetRows(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", id, err)
	}

	l.logger().Debug("loaded sheet",
		slog.String("path", l.Path),
		slog.String("sheet", id),
		slog.Int("rows", len(records)))

	return rawFromRecords(id, records, l.HeaderRows)
}

func (l *XLSXLoader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}
