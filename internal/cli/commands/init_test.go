package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/macrodash/internal/cli/testutil"
)

func TestRunInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")
	tr := testutil.NewTestRendererMarkdown()

	require.NoError(t, runInit(tr.Renderer, dir, &InitOptions{SourcePath: "data/macro.xlsx", Target: "duckdb"}))

	for _, p := range []string{"macrodash.yaml", "data", "seeds"} {
		_, err := os.Stat(filepath.Join(dir, p))
		assert.NoError(t, err, p)
	}
	testutil.AssertContains(t, tr.Output(), "macrodash.yaml")

	data, err := os.ReadFile(filepath.Join(dir, "macrodash.yaml"))
	require.NoError(t, err)

	var cfg starterConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "xlsx", cfg.Source.Type)
	assert.Equal(t, "data/macro.xlsx", cfg.Source.Path)
	assert.Equal(t, 2, cfg.Source.HeaderRows)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.True(t, cfg.UI.Watch)
}

func TestRunInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	tr := testutil.NewTestRendererMarkdown()

	require.NoError(t, runInit(tr.Renderer, dir, &InitOptions{SourcePath: "data"}))
	err := runInit(tr.Renderer, dir, &InitOptions{SourcePath: "data"})
	assert.ErrorContains(t, err, "already exists")

	require.NoError(t, runInit(tr.Renderer, dir, &InitOptions{SourcePath: "data", Force: true}))
}

func TestRenderStarterConfig(t *testing.T) {
	tests := []struct {
		name     string
		opts     InitOptions
		wantType string
		target   string
		wantErr  bool
	}{
		{name: "csv directory", opts: InitOptions{SourcePath: "data"}, wantType: "csv"},
		{name: "json-stat", opts: InitOptions{SourcePath: "data/eurostat.json"}, wantType: "jsonstat"},
		{name: "explicit type", opts: InitOptions{SourcePath: "data", SourceType: "xlsx"}, wantType: "xlsx"},
		{name: "sqlite warehouse", opts: InitOptions{SourcePath: "data", Target: "sqlite"}, wantType: "csv", target: "sqlite"},
		{name: "unsupported warehouse", opts: InitOptions{SourcePath: "data", Target: "oracle"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := renderStarterConfig(&tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var cfg starterConfig
			require.NoError(t, yaml.Unmarshal(data, &cfg))
			assert.Equal(t, tt.wantType, cfg.Source.Type)
			if tt.target == "" {
				assert.Nil(t, cfg.Target)
			} else {
				require.NotNil(t, cfg.Target)
				assert.Equal(t, tt.target, cfg.Target.Type)
			}
		})
	}
}
