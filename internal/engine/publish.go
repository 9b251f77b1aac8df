package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/leapstack-labs/macrodash/internal/loader"
	"github.com/leapstack-labs/macrodash/pkg/adapter"
	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/leapstack-labs/macrodash/pkg/normalize"
)

// DefaultTablePrefix prefixes tables created by Publish when no table name is given.
const DefaultTablePrefix = "macro_"

var nonIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// TableName derives a warehouse table name from a dataset id.
func TableName(datasetID string) string {
	slug := nonIdent.ReplaceAllString(strings.ToLower(strings.TrimSpace(datasetID)), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "dataset"
	}
	return DefaultTablePrefix + slug
}

// Publish replaces the contents of a warehouse fact table with the long-form
// observations of a dataset. An empty table name is derived from the id.
// The run is recorded in the state store whether it succeeds or not.
func (e *Engine) Publish(ctx context.Context, datasetID, table string) (*core.PublishRun, error) {
	if table == "" {
		table = TableName(datasetID)
	}

	ds, err := e.Dataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	run, err := e.store.CreatePublish(datasetID, table)
	if err != nil {
		return nil, err
	}

	e.logger.Info("publishing dataset",
		slog.String("dataset", datasetID),
		slog.String("table", table),
		slog.String("run_id", run.ID))

	rows, pubErr := e.writeFacts(ctx, ds, table)

	status, errMsg := core.RunStatusCompleted, ""
	if pubErr != nil {
		status, errMsg = core.RunStatusFailed, pubErr.Error()
	}
	if err := e.store.CompletePublish(run.ID, status, rows, errMsg); err != nil {
		e.logger.Warn("failed to record publish", slog.String("run_id", run.ID), slog.Any("error", err))
	}

	done, err := e.store.GetPublish(run.ID)
	if err != nil {
		done = run
	}
	if pubErr != nil {
		return done, fmt.Errorf("failed to publish %s to %s: %w", datasetID, table, pubErr)
	}
	return done, nil
}

func (e *Engine) writeFacts(ctx context.Context, ds *normalize.Dataset, table string) (int64, error) {
	quoted := adapter.QuoteQualified(table)
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    %s INTEGER NOT NULL,
    %s INTEGER,
    %s INTEGER,
    %s VARCHAR NOT NULL,
    %s VARCHAR NOT NULL,
    %s DOUBLE PRECISION
)`, quoted,
		adapter.QuoteIdent(loader.ColYear),
		adapter.QuoteIdent(loader.ColQuarter),
		adapter.QuoteIdent(loader.ColMonth),
		adapter.QuoteIdent(loader.ColGroup),
		adapter.QuoteIdent(loader.ColIndicator),
		adapter.QuoteIdent(loader.ColValue))

	if err := e.db.Exec(ctx, ddl); err != nil {
		return 0, err
	}

	obs := normalize.MeltDataset(ds)
	if err := e.db.Replace(ctx, table, loader.FactColumns, FactRows(obs)); err != nil {
		return 0, err
	}
	return int64(len(obs)), nil
}

// FactRows converts observations to rows in loader.FactColumns order.
func FactRows(obs []core.Observation) [][]any {
	rows := make([][]any, len(obs))
	for i, o := range obs {
		var quarter, month any
		switch o.Period.Freq {
		case core.Quarterly:
			quarter = o.Period.Sub
		case core.Monthly:
			month = o.Period.Sub
		}
		rows[i] = []any{o.Period.Year, quarter, month, o.Group, o.Indicator, o.Value}
	}
	return rows
}
