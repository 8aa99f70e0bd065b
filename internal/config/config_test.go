package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestManagerLoadsDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	cm, err := NewManager("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cm.Get())
	assert.Empty(t, cm.ConfigFile())
}

func TestManagerReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blueprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("viewport:\n  max_scale: 8\ninteraction:\n  min_shape_size: 20\n"), 0o644))
	t.Setenv("BLUEPRINT_SCANBOX_MIN_SIZE", "64")

	cm, err := NewManager(path)
	require.NoError(t, err)
	cfg := cm.Get()
	assert.Equal(t, 8.0, cfg.Viewport.MaxScale)
	assert.Equal(t, 20.0, cfg.Interaction.MinShapeSize)
	assert.Equal(t, 64.0, cfg.ScanBox.MinSize)
	assert.Equal(t, 0.9, cfg.Viewport.FitMargin)
}

func TestValidateRejectsBadBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Viewport.MinScale = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Viewport.FocusMaxScale = 10
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ScanBox.Margin = 0.6
	assert.Error(t, cfg.Validate())
}
