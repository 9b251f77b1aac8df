// Package export writes period-indexed tables to files for download.
// Missing values are written as empty cells or JSON null, never as zero.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{FormatCSV, FormatJSON, FormatXLSX}

// PeriodColumn is the header of the period column.
const PeriodColumn = "Period"

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch Format(ext) {
	case FormatCSV, FormatJSON, FormatXLSX:
		return Format(ext), nil
	}
	return "", fmt.Errorf("unsupported export format %q (supported: csv, json, xlsx)", ext)
}

// Write writes t to w in the given format.
func Write(w io.Writer, t *core.PeriodIndexedTable, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteCSV writes a header row then one row per period.
func WriteCSV(w io.Writer, t *core.PeriodIndexedTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{PeriodColumn}, t.Indicators...)); err != nil {
		return err
	}
	for i, p := range t.Periods {
		rec := make([]string, 0, len(t.Indicators)+1)
		rec = append(rec, p.Label())
		for _, v := range t.Values[i] {
			rec = append(rec, FormatValue(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Document is the JSON shape of an exported table.
type Document struct {
	Group      string        `json:"group"`
	Frequency  string        `json:"frequency"`
	Indicators []string      `json:"indicators"`
	Rows       []DocumentRow `json:"rows"`
}

// DocumentRow is one period of a Document. Missing values are null.
type DocumentRow struct {
	Period string     `json:"period"`
	Values []*float64 `json:"values"`
}

// NewDocument converts t to its JSON shape.
func NewDocument(t *core.PeriodIndexedTable) Document {
	doc := Document{
		Group:      t.Group,
		Frequency:  string(t.Frequency),
		Indicators: t.Indicators,
		Rows:       make([]DocumentRow, len(t.Periods)),
	}
	if doc.Indicators == nil {
		doc.Indicators = []string{}
	}
	for i, p := range t.Periods {
		row := DocumentRow{Period: p.Label(), Values: make([]*float64, len(t.Values[i]))}
		for j, v := range t.Values[i] {
			if v.Valid {
				f := v.Float
				row.Values[j] = &f
			}
		}
		doc.Rows[i] = row
	}
	return doc
}

// WriteJSON writes t as an indented Document.
func WriteJSON(w io.Writer, t *core.PeriodIndexedTable) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(t))
}

// FormatValue renders a value for text output; missing is "".
func FormatValue(v core.Value) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}
