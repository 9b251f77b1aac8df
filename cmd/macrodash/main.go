// Package main provides the macrodash CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/macrodash/internal/cli"

	// Register warehouse adapters
	_ "github.com/leapstack-labs/macrodash/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/macrodash/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/macrodash/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
