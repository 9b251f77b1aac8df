package loader

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/adapter"
	"github.com/leapstack-labs/macrodash/pkg/core"
)

// Long-form fact table columns.
const (
	ColYear      = "year"
	ColQuarter   = "quarter"
	ColMonth     = "month"
	ColGroup     = "group_name"
	ColIndicator = "indicator"
	ColValue     = "value"
)

// FactColumns is the column order of a published fact table.
var FactColumns = []string{ColYear, ColQuarter, ColMonth, ColGroup, ColIndicator, ColValue}

// WarehouseLoader reads long-form fact tables through an adapter and pivots
// them back into wide raw tables. Quarter and month columns are optional.
type WarehouseLoader struct {
	Adapter adapter.Adapter
	Tables  []string
	Logger  *slog.Logger
}

// Datasets lists the configured tables.
func (l *WarehouseLoader) Datasets(ctx context.Context) ([]DatasetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]DatasetInfo, 0, len(l.Tables))
	for _, t := range l.Tables {
		out = append(out, DatasetInfo{ID: t, Source: "warehouse"})
	}
	return out, nil
}

// Load reads one fact table. Periods become rows and (group, indicator)
// pairs become columns, both in order of first appearance.
func (l *WarehouseLoader) Load(ctx context.Context, id string) (*core.RawTable, error) {
	known := false
	for _, t := range l.Tables {
		if t == id {
			known = true
			break
		}
	}
	if !known {
		infos, _ := l.Datasets(ctx)
		return nil, notFound(id, infos)
	}

	meta, err := l.Adapter.GetTableMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", id, err)
	}
	present := make(map[string]bool, len(meta.Columns))
	for _, c := range meta.Columns {
		present[strings.ToLower(c.Name)] = true
	}
	for _, required := range []string{ColYear, ColGroup, ColIndicator, ColValue} {
		if !present[required] {
			return nil, fmt.Errorf("table %s is missing required column %q", id, required)
		}
	}

	selectCol := func(name string) string {
		if present[name] {
			return adapter.QuoteIdent(name)
		}
		return "NULL AS " + adapter.QuoteIdent(name)
	}
	cols := make([]string, len(FactColumns))
	for i, c := range FactColumns {
		cols[i] = selectCol(c)
	}
	order := []string{adapter.QuoteIdent(ColYear)}
	if present[ColQuarter] {
		order = append(order, adapter.QuoteIdent(ColQuarter))
	}
	if present[ColMonth] {
		order = append(order, adapter.QuoteIdent(ColMonth))
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(cols, ", "), adapter.QuoteQualified(id), strings.Join(order, ", "))

	rows, err := l.Adapter.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	headers := []core.Header{{Top: string(core.TimeFieldYear)}}
	if present[ColQuarter] {
		headers = append(headers, core.Header{Top: string(core.TimeFieldQuarter)})
	}
	if present[ColMonth] {
		headers = append(headers, core.Header{Top: string(core.TimeFieldMonth)})
	}
	nTime := len(headers)

	p := newPivot(nTime)
	for rows.Next() {
		var (
			year, quarter, month sql.NullInt64
			group, indicator     string
			value                sql.NullFloat64
		)
		if err := rows.Scan(&year, &quarter, &month, &group, &indicator, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", id, err)
		}

		timeCells := []string{nullInt(year)}
		if present[ColQuarter] {
			timeCells = append(timeCells, nullInt(quarter))
		}
		if present[ColMonth] {
			timeCells = append(timeCells, nullInt(month))
		}
		cell := ""
		if value.Valid {
			cell = strconv.FormatFloat(value.Float64, 'f', -1, 64)
		}
		p.add(timeCells, core.ColumnKey{Group: group, Indicator: indicator}, cell)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", id, err)
	}

	raw := p.table(id, headers)
	if l.Logger != nil {
		l.Logger.Debug("loaded warehouse table",
			slog.String("table", id),
			slog.Int("rows", len(raw.Rows)),
			slog.Int("columns", len(raw.Headers)-nTime))
	}
	return raw, nil
}

func nullInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

// pivot accumulates long-form observations into a wide table.
type pivot struct {
	nTime  int
	rowIdx map[string]int
	colIdx map[core.ColumnKey]int
	keys   []core.ColumnKey
	rows   [][]string
}

func newPivot(nTime int) *pivot {
	return &pivot{
		nTime:  nTime,
		rowIdx: make(map[string]int),
		colIdx: make(map[core.ColumnKey]int),
	}
}

func (p *pivot) add(timeCells []string, key core.ColumnKey, cell string) {
	rk := strings.Join(timeCells, "\x00")
	r, ok := p.rowIdx[rk]
	if !ok {
		r = len(p.rows)
		p.rowIdx[rk] = r
		p.rows = append(p.rows, append([]string(nil), timeCells...))
	}
	c, ok := p.colIdx[key]
	if !ok {
		c = len(p.keys)
		p.colIdx[key] = c
		p.keys = append(p.keys, key)
	}

	row := p.rows[r]
	if need := p.nTime + c + 1; len(row) < need {
		row = append(row, make([]string, need-len(row))...)
		p.rows[r] = row
	}
	if row[p.nTime+c] == "" {
		row[p.nTime+c] = cell
	}
}

func (p *pivot) table(name string, timeHeaders []core.Header) *core.RawTable {
	headers := append([]core.Header(nil), timeHeaders...)
	for _, k := range p.keys {
		headers = append(headers, core.Header{Top: k.Group, Sub: k.Indicator})
	}
	return &core.RawTable{Name: name, Headers: headers, Rows: p.rows}
}
