package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

const loadColumns = `id, dataset_id, source, frequency, row_count, group_count, indicator_count, first_label, last_label, loaded_at`

// RecordLoad stores a load record. ID and LoadedAt are filled in when empty.
func (s *SQLiteStore) RecordLoad(rec *core.LoadRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.LoadedAt.IsZero() {
		rec.LoadedAt = time.Now().UTC()
	}

	s.logger.Debug("recording load",
		slog.String("dataset", rec.DatasetID),
		slog.String("frequency", string(rec.Frequency)),
		slog.Int("rows", rec.Rows))

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO loads (`+loadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.DatasetID, rec.Source, string(rec.Frequency),
		rec.Rows, rec.Groups, rec.Indicators, rec.FirstLabel, rec.LastLabel, rec.LoadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record load: %w", err)
	}
	return nil
}

// ListLoads returns the most recent loads, newest first. An empty datasetID
// lists loads of every dataset; a non-positive limit returns all rows.
func (s *SQLiteStore) ListLoads(datasetID string, limit int) ([]*core.LoadRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	query := `SELECT ` + loadColumns + ` FROM loads`
	args := []any{}
	if datasetID != "" {
		query += ` WHERE dataset_id = ?`
		args = append(args, datasetID)
	}
	query += ` ORDER BY loaded_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.LoadRecord
	for rows.Next() {
		rec, err := scanLoad(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetLatestLoad returns the newest load of a dataset.
func (s *SQLiteStore) GetLatestLoad(datasetID string) (*core.LoadRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx(),
		`SELECT `+loadColumns+` FROM loads WHERE dataset_id = ? ORDER BY loaded_at DESC, rowid DESC LIMIT 1`,
		datasetID)
	rec, err := scanLoad(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no loads recorded for dataset: %s", datasetID)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoad(sc scanner) (*core.LoadRecord, error) {
	rec := &core.LoadRecord{}
	var freq string
	err := sc.Scan(&rec.ID, &rec.DatasetID, &rec.Source, &freq,
		&rec.Rows, &rec.Groups, &rec.Indicators, &rec.FirstLabel, &rec.LastLabel, &rec.LoadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan load: %w", err)
	}
	rec.Frequency, _ = core.ParseFrequency(freq)
	return rec, nil
}
