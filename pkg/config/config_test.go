package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	yaml := "decline_over_cents: 250\nstock:\n  WIDGET-1: 4\naspects:\n  - logging\n  - timing\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.DeclineOverCents)
	assert.Equal(t, map[string]int{"WIDGET-1": 4}, cfg.Stock)
	assert.True(t, cfg.HasAspect("logging"))
	assert.False(t, cfg.HasAspect("audit"))
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.toml")
	doc := "decline_over_cents = 900\naspects = [\"alert\"]\n\n[stock]\nGIZMO-7 = 3\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.DeclineOverCents)
	assert.Equal(t, map[string]int{"GIZMO-7": 3}, cfg.Stock)
	assert.Equal(t, []string{"alert"}, cfg.Aspects)
}

func TestLoad_UnrecognizedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/no/such/graph.yaml")
	require.Error(t, err)
}
