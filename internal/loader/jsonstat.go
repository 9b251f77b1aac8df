package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// JSONStatLoader reads JSON-stat 2.0 dataset documents. Path may be a single
// .json file or a directory of them.
//
// The time dimension becomes the Year column, plus Quarter or Month when its
// category codes encode them. The group dimension becomes the header's top
// level. Every other dimension with more than one category is folded into
// the indicator label; singleton dimensions name the indicator only when no
// such dimension exists.
type JSONStatLoader struct {
	Path           string
	TimeDimension  string
	GroupDimension string
	Logger         *slog.Logger
}

type jsonStatDoc struct {
	Version   string                       `json:"version"`
	Class     string                       `json:"class"`
	Label     string                       `json:"label"`
	ID        []string                     `json:"id"`
	Size      []int                        `json:"size"`
	Role      map[string][]string          `json:"role"`
	Dimension map[string]jsonStatDimension `json:"dimension"`
	Value     json.RawMessage              `json:"value"`
}

type jsonStatDimension struct {
	Label    string `json:"label"`
	Category struct {
		Index json.RawMessage   `json:"index"`
		Label map[string]string `json:"label"`
	} `json:"category"`
}

// categories returns the dimension's category codes in index order.
func (d jsonStatDimension) categories() ([]string, error) {
	idx := d.Category.Index
	if len(idx) == 0 || string(idx) == "null" {
		// A single category may be given by label only.
		codes := make([]string, 0, len(d.Category.Label))
		for code := range d.Category.Label {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		return codes, nil
	}

	var list []string
	if err := json.Unmarshal(idx, &list); err == nil {
		return list, nil
	}

	var positions map[string]int
	if err := json.Unmarshal(idx, &positions); err != nil {
		return nil, fmt.Errorf("invalid category index: %w", err)
	}
	codes := make([]string, len(positions))
	for code, pos := range positions {
		if pos < 0 || pos >= len(codes) {
			return nil, fmt.Errorf("category %q has out-of-range index %d", code, pos)
		}
		codes[pos] = code
	}
	return codes, nil
}

func (d jsonStatDimension) label(code string) string {
	if l, ok := d.Category.Label[code]; ok && l != "" {
		return l
	}
	return code
}

func (l *JSONStatLoader) files() (map[string]string, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat json-stat source: %w", err)
	}

	files := make(map[string]string)
	if !info.IsDir() {
		files[datasetID(l.Path)] = l.Path
		return files, nil
	}
	matches, err := filepath.Glob(filepath.Join(l.Path, "*.json"))
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		files[datasetID(m)] = m
	}
	return files, nil
}

// Datasets lists the JSON-stat documents under Path, sorted by id.
func (l *JSONStatLoader) Datasets(ctx context.Context) ([]DatasetInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := l.files()
	if err != nil {
		return nil, err
	}
	out := make([]DatasetInfo, 0, len(files))
	for _, id := range sortedKeys(files) {
		out = append(out, DatasetInfo{ID: id, Source: files[id]})
	}
	return out, nil
}

// Load reads and pivots one JSON-stat document.
func (l *JSONStatLoader) Load(ctx context.Context, id string) (*core.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := l.files()
	if err != nil {
		return nil, err
	}
	path, ok := files[id]
	if !ok {
		infos, _ := l.Datasets(ctx)
		return nil, notFound(id, infos)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc jsonStatDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	raw, err := l.pivot(id, &doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if l.Logger != nil {
		l.Logger.Debug("loaded json-stat dataset",
			slog.String("path", path),
			slog.Int("rows", len(raw.Rows)),
			slog.Int("columns", len(raw.Headers)))
	}
	return raw, nil
}

// valueColumn is one (group, indicator) combination of non-time categories.
type valueColumn struct {
	group     string
	indicator string
	// coords holds the category position for each non-time dimension.
	coords map[int]int
}

func (l *JSONStatLoader) pivot(name string, doc *jsonStatDoc) (*core.RawTable, error) {
	if doc.Class != "" && doc.Class != "dataset" {
		return nil, fmt.Errorf("unsupported json-stat class %q", doc.Class)
	}
	if len(doc.ID) == 0 || len(doc.ID) != len(doc.Size) {
		return nil, fmt.Errorf("json-stat id and size must be non-empty and of equal length")
	}

	cats := make([][]string, len(doc.ID))
	for i, dimID := range doc.ID {
		dim, ok := doc.Dimension[dimID]
		if !ok {
			return nil, fmt.Errorf("dimension %q is listed in id but not defined", dimID)
		}
		c, err := dim.categories()
		if err != nil {
			return nil, fmt.Errorf("dimension %q: %w", dimID, err)
		}
		if len(c) != doc.Size[i] {
			return nil, fmt.Errorf("dimension %q has %d categories, size says %d", dimID, len(c), doc.Size[i])
		}
		cats[i] = c
	}

	timeDim := l.timeDimension(doc)
	if timeDim < 0 {
		return nil, fmt.Errorf("no time dimension found (set source.time_dimension)")
	}
	groupDim := -1
	if l.GroupDimension != "" {
		groupDim = indexOfFold(doc.ID, l.GroupDimension)
		if groupDim < 0 || groupDim == timeDim {
			return nil, fmt.Errorf("group dimension %q not found", l.GroupDimension)
		}
	}

	values, err := decodeValues(doc.Value, product(doc.Size))
	if err != nil {
		return nil, err
	}

	// Row-major strides: the last dimension varies fastest.
	strides := make([]int, len(doc.Size))
	stride := 1
	for i := len(doc.Size) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= doc.Size[i]
	}

	columns := l.valueColumns(doc, cats, timeDim, groupDim)

	timeCodes := cats[timeDim]
	periods := make([]timeCode, len(timeCodes))
	hasQuarter, hasMonth := false, false
	for i, code := range timeCodes {
		tc := parseTimeCode(code)
		if !tc.ok {
			tc = parseTimeCode(doc.Dimension[doc.ID[timeDim]].label(code))
		}
		periods[i] = tc
		hasQuarter = hasQuarter || tc.quarter > 0
		hasMonth = hasMonth || tc.month > 0
	}

	headers := []core.Header{{Top: string(core.TimeFieldYear)}}
	switch {
	case hasMonth:
		headers = append(headers, core.Header{Top: string(core.TimeFieldMonth)})
	case hasQuarter:
		headers = append(headers, core.Header{Top: string(core.TimeFieldQuarter)})
	}
	nTime := len(headers)
	for _, c := range columns {
		headers = append(headers, core.Header{Top: c.group, Sub: c.indicator})
	}

	raw := &core.RawTable{Name: name, Headers: headers}
	for ti, tc := range periods {
		row := make([]string, len(headers))
		// Unresolvable cells keep the raw code. A blank would be forward
		// filled from the row above and invent a period.
		code := timeCodes[ti]
		row[0] = code
		if nTime > 1 {
			row[1] = code
		}
		if tc.ok {
			row[0] = strconv.Itoa(tc.year)
			switch {
			case hasMonth && tc.month > 0:
				row[1] = strconv.Itoa(tc.month)
			case hasQuarter && !hasMonth && tc.quarter > 0:
				row[1] = strconv.Itoa(tc.quarter)
			}
		}
		for ci, c := range columns {
			offset := ti * strides[timeDim]
			for dim, pos := range c.coords {
				offset += pos * strides[dim]
			}
			row[nTime+ci] = values[offset]
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw, nil
}

func (l *JSONStatLoader) timeDimension(doc *jsonStatDoc) int {
	if l.TimeDimension != "" {
		return indexOfFold(doc.ID, l.TimeDimension)
	}
	for _, dimID := range doc.Role["time"] {
		if i := indexOfFold(doc.ID, dimID); i >= 0 {
			return i
		}
	}
	for _, candidate := range []string{"time", "year", "period", "date"} {
		if i := indexOfFold(doc.ID, candidate); i >= 0 {
			return i
		}
	}
	return -1
}

// valueColumns enumerates the non-time category combinations in row-major
// order, so columns come out in the document's own ordering.
func (l *JSONStatLoader) valueColumns(doc *jsonStatDoc, cats [][]string, timeDim, groupDim int) []valueColumn {
	var dims []int
	for i := range doc.ID {
		if i != timeDim {
			dims = append(dims, i)
		}
	}

	var out []valueColumn
	var walk func(k int, coords map[int]int)
	walk = func(k int, coords map[int]int) {
		if k == len(dims) {
			c := valueColumn{coords: make(map[int]int, len(coords))}
			var parts, singles []string
			for _, d := range dims {
				pos := coords[d]
				c.coords[d] = pos
				label := doc.Dimension[doc.ID[d]].label(cats[d][pos])
				switch {
				case d == groupDim:
					c.group = label
				case len(cats[d]) > 1:
					parts = append(parts, label)
				default:
					singles = append(singles, label)
				}
			}
			switch {
			case len(parts) > 0:
				c.indicator = strings.Join(parts, ", ")
			case len(singles) > 0:
				c.indicator = strings.Join(singles, ", ")
			case doc.Label != "":
				c.indicator = doc.Label
			default:
				c.indicator = "value"
			}
			out = append(out, c)
			return
		}
		d := dims[k]
		for pos := range cats[d] {
			coords[d] = pos
			walk(k+1, coords)
		}
	}
	walk(0, map[int]int{})
	return out
}

// decodeValues accepts the dense array form and the sparse object form.
// Missing and null values decode to "".
func decodeValues(raw json.RawMessage, n int) ([]string, error) {
	out := make([]string, n)
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}

	var dense []*float64
	if err := json.Unmarshal(raw, &dense); err == nil {
		if len(dense) != n {
			return nil, fmt.Errorf("value has %d entries, dimensions need %d", len(dense), n)
		}
		for i, v := range dense {
			out[i] = formatFloat(v)
		}
		return out, nil
	}

	var sparse map[string]*float64
	if err := json.Unmarshal(raw, &sparse); err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	for k, v := range sparse {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= n {
			return nil, fmt.Errorf("invalid value index %q", k)
		}
		out[i] = formatFloat(v)
	}
	return out, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

type timeCode struct {
	year, quarter, month int
	ok                   bool
}

var (
	yearRe    = regexp.MustCompile(`^(\d{4})$`)
	quarterRe = regexp.MustCompile(`^(\d{4})[-\s]?[Qq]([1-4])$`)
	monthRe   = regexp.MustCompile(`^(\d{4})(?:[-\s]?[Mm]|-)(\d{1,2})$`)
)

// parseTimeCode recognizes "2021", "2021Q3", "2021-Q3", "2021M03" and "2021-03".
func parseTimeCode(s string) timeCode {
	s = strings.TrimSpace(s)
	if m := yearRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		return timeCode{year: y, ok: true}
	}
	if m := quarterRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		q, _ := strconv.Atoi(m[2])
		return timeCode{year: y, quarter: q, ok: true}
	}
	if m := monthRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		if mo >= 1 && mo <= 12 {
			return timeCode{year: y, month: mo, ok: true}
		}
	}
	return timeCode{}
}

func indexOfFold(ids []string, name string) int {
	for i, id := range ids {
		if strings.EqualFold(id, name) {
			return i
		}
	}
	return -1
}

func product(sizes []int) int {
	n := 1
	for _, s := range sizes {
		n *= s
	}
	return n
}
