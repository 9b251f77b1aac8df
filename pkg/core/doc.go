// Package core defines the shared language of the macrodash system.
//
// This package contains:
//   - Dataset entities (RawTable, Period, PeriodIndexedTable, Observation)
//   - Service interfaces (Store)
//   - Configuration types (TargetConfig, AdapterConfig)
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
