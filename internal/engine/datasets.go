package engine

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/macrodash/internal/loader"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/leapstack-labs/macrodash/pkg/normalize"
)

// Datasets lists the datasets of the configured source.
func (e *Engine) Datasets(ctx context.Context) ([]loader.DatasetInfo, error) {
	l, err := e.loader(ctx)
	if err != nil {
		return nil, err
	}
	return l.Datasets(ctx)
}

// Raw returns the cached raw table of a dataset.
func (e *Engine) Raw(ctx context.Context, id string) (*core.RawTable, error) {
	l, err := e.loader(ctx)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, id)
}

// Dataset loads and normalizes a dataset. The first normalization of each
// freshly read raw table is recorded in the state store.
func (e *Engine) Dataset(ctx context.Context, id string) (*normalize.Dataset, error) {
	raw, err := e.Raw(ctx, id)
	if err != nil {
		return nil, err
	}

	ds, err := normalize.Normalize(raw, e.NormalizeOptions())
	if err != nil {
		return nil, err
	}

	e.recordLoad(raw, ds)
	return ds, nil
}

// Series builds a period-indexed table for one group. An empty indicator list
// selects every indicator of the group. On missing indicators the partial
// table is returned alongside the error.
func (e *Engine) Series(ctx context.Context, id, group string, indicators []string) (*core.PeriodIndexedTable, error) {
	ds, err := e.Dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(indicators) == 0 {
		return ds.GroupSeries(group)
	}
	return ds.Series(group, indicators)
}

// Invalidate drops a dataset from the cache so the next access rereads it.
func (e *Engine) Invalidate(id string) {
	e.loaderMu.Lock()
	cache := e.cache
	e.loaderMu.Unlock()
	if cache != nil {
		cache.Invalidate(id)
	}

	e.recordedMu.Lock()
	for raw := range e.recorded {
		if raw.Name == id {
			delete(e.recorded, raw)
		}
	}
	e.recordedMu.Unlock()
}

// InvalidateAll drops every cached dataset.
func (e *Engine) InvalidateAll() {
	e.loaderMu.Lock()
	cache := e.cache
	e.loaderMu.Unlock()
	if cache != nil {
		cache.InvalidateAll()
	}

	e.recordedMu.Lock()
	clear(e.recorded)
	e.recordedMu.Unlock()
}

func (e *Engine) recordLoad(raw *core.RawTable, ds *normalize.Dataset) {
	e.recordedMu.Lock()
	if e.recorded[raw] {
		e.recordedMu.Unlock()
		return
	}
	e.recorded[raw] = true
	e.recordedMu.Unlock()

	rec := &core.LoadRecord{
		DatasetID:  ds.Name,
		Source:     e.source.Path,
		Frequency:  ds.Frequency,
		Rows:       len(ds.Periods()),
		Groups:     len(ds.Groups()),
		Indicators: len(ds.Keys()),
	}
	if periods := ds.Periods(); len(periods) > 0 {
		rec.FirstLabel = periods[0].Label()
		rec.LastLabel = periods[len(periods)-1].Label()
	}
	if e.source.Type == loader.SourceWarehouse {
		rec.Source = loader.SourceWarehouse
	}

	if err := e.store.RecordLoad(rec); err != nil {
		e.logger.Warn("failed to record load", slog.String("dataset", ds.Name), slog.Any("error", err))
	}
}
