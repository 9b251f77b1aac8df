package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/macrodash/internal/loader"
	"github.com/leapstack-labs/macrodash/pkg/adapter"
	"github.com/leapstack-labs/macrodash/pkg/core"
)

// ValidateTarget checks a target against the adapter registry.
func ValidateTarget(t *core.TargetConfig) error {
	if t == nil {
		return nil
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}
	return nil
}

// ValidateSource checks that a source can be turned into a loader.
func ValidateSource(s *core.SourceConfig) error {
	typ := s.Type
	if typ == "" {
		typ = loader.InferType(s.Path)
	}

	switch typ {
	case loader.SourceXLSX, "excel", loader.SourceCSV, loader.SourceJSONStat, "json-stat":
		if s.Path == "" {
			return fmt.Errorf("source.path is required for %s sources", typ)
		}
	case loader.SourceWarehouse:
		if len(s.Tables) == 0 {
			return fmt.Errorf("source.tables is required for warehouse sources")
		}
	default:
		return &loader.UnknownSourceError{Type: s.Type}
	}

	if s.HeaderRows != 0 && s.HeaderRows != 1 && s.HeaderRows != 2 {
		return fmt.Errorf("source.header_rows must be 1 or 2, got %d", s.HeaderRows)
	}
	return nil
}

// AdapterConfig converts a target to the adapter connection config.
// File-based targets use Database as the path.
func AdapterConfig(t *core.TargetConfig) *adapter.Config {
	if t == nil || t.Type == "" {
		return nil
	}
	return &adapter.Config{
		Type:     t.Type,
		Path:     t.Database,
		Database: t.Database,
		Schema:   t.Schema,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
		Params:   t.Params,
	}
}
