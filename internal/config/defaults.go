// Package config holds configuration defaults and validation shared by the
// CLI and the dashboard server.
package config

import (
	"strings"

	"github.com/leapstack-labs/macrodash/pkg/core"
	"github.com/leapstack-labs/macrodash/pkg/normalize"
)

// Default configuration values.
const (
	DefaultSeedsDir   = "seeds"
	DefaultStateFile  = ".macrodash/state.db"
	DefaultEnv        = "dev"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultHeaderRows = 2
	DefaultUIPort     = 8765
	DefaultUIHost     = "127.0.0.1"
)

// DefaultSchemaForType returns the default schema for a warehouse type.
func DefaultSchemaForType(dbType string) string {
	switch strings.ToLower(dbType) {
	case "postgres", "postgresql":
		return "public"
	default:
		return "main"
	}
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *core.TargetConfig) {
	if t == nil {
		return
	}
	t.Type = strings.ToLower(strings.TrimSpace(t.Type))
	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}
	if t.Type == "postgres" && t.Port == 0 {
		t.Port = 5432
	}
}

// ApplySourceDefaults fills unset source fields.
func ApplySourceDefaults(s *core.SourceConfig) {
	if s == nil {
		return
	}
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	if s.HeaderRows == 0 {
		s.HeaderRows = DefaultHeaderRows
	}
	if s.FallbackGroup == "" {
		s.FallbackGroup = normalize.DefaultFallbackGroup
	}
}
