// Package config loads macrodash CLI configuration.
//
// Shared types (TargetConfig, SourceConfig) live in pkg/core and are
// re-exported here as aliases.
package config

import (
	sharedcfg "github.com/leapstack-labs/macrodash/internal/config"
	"github.com/leapstack-labs/macrodash/pkg/core"
)

// TargetConfig is an alias for the shared warehouse target configuration.
type TargetConfig = core.TargetConfig

// SourceConfig is an alias for the shared dataset source configuration.
type SourceConfig = core.SourceConfig

// UIConfig holds configuration for the dashboard server.
type UIConfig struct {
	Host          string `koanf:"host"`
	Port          int    `koanf:"port"`
	Watch         bool   `koanf:"watch"`
	PreviewLimit  int    `koanf:"preview_limit"`
	SessionSecret string `koanf:"session_secret"`
}

// DefaultPreviewLimit is the number of raw rows shown by group previews.
const DefaultPreviewLimit = 20

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Host:         sharedcfg.DefaultUIHost,
		Port:         sharedcfg.DefaultUIPort,
		Watch:        true,
		PreviewLimit: DefaultPreviewLimit,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := *c.UI
	if ui.Host == "" {
		ui.Host = sharedcfg.DefaultUIHost
	}
	if ui.Port == 0 {
		ui.Port = sharedcfg.DefaultUIPort
	}
	if ui.PreviewLimit == 0 {
		ui.PreviewLimit = DefaultPreviewLimit
	}
	return &ui
}

// Config holds all CLI configuration options.
type Config struct {
	ProjectRoot  string               `koanf:"-"`
	Source       SourceConfig         `koanf:"source"`
	Target       *TargetConfig        `koanf:"target"`
	SeedsDir     string               `koanf:"seeds_dir"`
	StatePath    string               `koanf:"state_path"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	UI           *UIConfig            `koanf:"ui"`
	Environments map[string]EnvConfig `koanf:"environments"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	SourcePath string        `koanf:"source_path"`
	SeedsDir   string        `koanf:"seeds_dir"`
	Target     *TargetConfig `koanf:"target"`
}

// Default configuration values, shared with the dashboard server.
const (
	DefaultSeedsDir  = sharedcfg.DefaultSeedsDir
	DefaultStateFile = sharedcfg.DefaultStateFile
	DefaultEnv       = sharedcfg.DefaultEnv
	DefaultOutput    = sharedcfg.DefaultOutput
)
