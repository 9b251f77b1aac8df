package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/core"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVLoader reads CSV files with one or two header rows. Path may be a
// single file or a directory; the dataset id is the file's base name.
type CSVLoader struct {
	Path       string
	HeaderRows int
	Logger     *slog.Logger
}

// Datasets lists the CSV files under Path, sorted by id.
func (l *CSVLoader) Datasets(ctx context.Context) ([]DatasetInfo, error) {
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

func (l *CSVLoader) files() (map[string]string, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat csv source: %w", err)
	}

	files := make(map[string]string)
	if !info.IsDir() {
		files[datasetID(l.Path)] = l.Path
		return files, nil
	}

	matches, err := filepath.Glob(filepath.Join(l.Path, "*.csv"))
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		files[datasetID(m)] = m
	}
	return files, nil
}

// Load reads one CSV file.
func (l *CSVLoader) Load(ctx context.Context, id string) (*core.RawTable, error) {
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

	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := readRecords(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if l.Logger != nil {
		l.Logger.Debug("loaded csv", slog.String("path", path), slog.Int("records", len(records)))
	}

	return rawFromRecords(id, records, l.HeaderRows)
}

func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

func datasetID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
