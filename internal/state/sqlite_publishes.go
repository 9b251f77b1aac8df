package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

const publishColumns = `id, dataset_id, table_name, status, row_count, started_at, completed_at, error`

// CreatePublish starts a new publish run in the running state.
func (s *SQLiteStore) CreatePublish(datasetID, table string) (*core.PublishRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.PublishRun{
		ID:        generateID(),
		DatasetID: datasetID,
		Table:     table,
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating publish run",
		slog.String("id", run.ID),
		slog.String("dataset", datasetID),
		slog.String("table", table))

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO publishes (id, dataset_id, table_name, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.DatasetID, run.Table, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publish run: %w", err)
	}
	return run, nil
}

// CompletePublish marks a publish run as finished with the given status.
func (s *SQLiteStore) CompletePublish(id string, status core.RunStatus, rows int64, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errorVal sql.NullString
	if errMsg != "" {
		errorVal = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := s.db.ExecContext(ctx(),
		`UPDATE publishes SET status = ?, row_count = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), rows, time.Now().UTC(), errorVal, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete publish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("publish run not found: %s", id)
	}
	return nil
}

// GetPublish retrieves a publish run by ID.
func (s *SQLiteStore) GetPublish(id string) (*core.PublishRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx(), `SELECT `+publishColumns+` FROM publishes WHERE id = ?`, id)
	run, err := scanPublish(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("publish run not found: %s", id)
	}
	return run, err
}

// ListPublishes returns publish runs, newest first. A non-positive limit
// returns all rows.
func (s *SQLiteStore) ListPublishes(limit int) ([]*core.PublishRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT `+publishColumns+` FROM publishes ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list publish runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.PublishRun
	for rows.Next() {
		run, err := scanPublish(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanPublish(sc scanner) (*core.PublishRun, error) {
	run := &core.PublishRun{}
	var (
		status      string
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	err := sc.Scan(&run.ID, &run.DatasetID, &run.Table, &status, &run.Rows,
		&run.StartedAt, &completedAt, &errMsg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan publish run: %w", err)
	}
	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}
