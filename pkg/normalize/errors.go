package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/core"
)

// Sentinel errors for errors.Is checks.
var (
	ErrSchema             = errors.New("schema error")
	ErrNoValidTimeColumns = errors.New("no valid time columns")
	ErrIndicatorNotFound  = errors.New("indicator not found")
	ErrNoIndicators       = errors.New("no indicators requested")
)

// SchemaError is returned when a table has no recognizable time column.
type SchemaError struct {
	Table   string
	Headers []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %q has no Year, Month or Quarter column (headers: %s)",
		e.Table, strings.Join(e.Headers, ", "))
}

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// NoValidTimeColumnsError is returned when time columns exist but none of
// them yields a coercible period.
type NoValidTimeColumnsError struct {
	Table  string
	Fields []core.TimeField
}

func (e *NoValidTimeColumnsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("table %q: time columns [%s] contain no usable period values",
		e.Table, strings.Join(names, ", "))
}

// Is reports whether target is ErrNoValidTimeColumns.
func (e *NoValidTimeColumnsError) Is(target error) bool {
	return target == ErrNoValidTimeColumns
}

// IndicatorNotFoundError names a requested (group, indicator) pair that the
// table does not contain.
type IndicatorNotFoundError struct {
	Group     string
	Indicator string
}

func (e *IndicatorNotFoundError) Error() string {
	if e.Indicator == "" {
		return fmt.Sprintf("group %q has no indicators", e.Group)
	}
	return fmt.Sprintf("indicator %q not found in group %q", e.Indicator, e.Group)
}

// Is reports whether target is ErrIndicatorNotFound.
func (e *IndicatorNotFoundError) Is(target error) bool {
	return target == ErrIndicatorNotFound
}

// MissingIndicators lists the pairs reported by IndicatorNotFoundError
// values inside err, including those joined with errors.Join.
func MissingIndicators(err error) []core.ColumnKey {
	var out []core.ColumnKey
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if nf, ok := e.(*IndicatorNotFoundError); ok {
			out = append(out, core.ColumnKey{Group: nf.Group, Indicator: nf.Indicator})
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

// OnlyMissingIndicators reports whether err consists solely of
// IndicatorNotFoundError values, i.e. the partial result is usable.
func OnlyMissingIndicators(err error) bool {
	if err == nil {
		return false
	}
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range u.Unwrap() {
			if !OnlyMissingIndicators(inner) {
				return false
			}
		}
		return true
	}
	var nf *IndicatorNotFoundError
	return errors.As(err, &nf)
}
