// Package normalize turns raw two-level-header tables into period-indexed
// indicator series.
//
// The pipeline runs in four steps, each exposed on its own:
//
//	SplitColumns          partition columns into time and value columns
//	CleanGroupLabels      forward-fill blank group labels
//	ForwardFillTimeBlock  resolve merged-cell time blocks
//	DerivePeriods         coerce time cells into canonical periods
//
// Normalize runs all four and returns a Dataset that answers series queries.
// Functions here are pure: they never mutate their inputs and never log.
package normalize
