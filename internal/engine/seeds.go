package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadSeeds loads every CSV file of the seeds directory into a warehouse
// table named after the file. A missing directory loads nothing.
func (e *Engine) LoadSeeds(ctx context.Context) ([]string, error) {
	if e.seedsDir == "" {
		return nil, nil
	}

	e.logger.Debug("loading seeds", slog.String("seeds_dir", e.seedsDir))

	entries, err := os.ReadDir(e.seedsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read seeds directory: %w", err)
	}

	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	var loaded []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		tableName := strings.TrimSuffix(entry.Name(), ".csv")
		csvPath := filepath.Join(e.seedsDir, entry.Name())

		e.logger.Debug("loading seed file", slog.String("table", tableName), slog.String("path", csvPath))

		if err := e.db.LoadCSV(ctx, tableName, csvPath); err != nil {
			return loaded, fmt.Errorf("failed to load seed %s: %w", entry.Name(), err)
		}
		loaded = append(loaded, tableName)
	}

	return loaded, nil
}
