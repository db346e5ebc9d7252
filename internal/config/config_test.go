package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arl/crowdsteer/internal/config"
)

func newFlags(t *testing.T, scenePath string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("scene", scenePath, "")
	fs.Int("ticks", 600, "")
	fs.Float32("dt", 1.0/30.0, "")
	fs.Bool("debugAvoidance", false, "")
	return fs
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeYAML(t, `
scene: floor.obj
ticks: 42
agents: []
`)
	cfg, err := config.Load(newFlags(t, path))
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ScenePath)
	assert.Equal(t, 42, cfg.Ticks)
	assert.False(t, cfg.DebugAvoidance)
}

func TestLoadMissingScenePathErrors(t *testing.T) {
	fs := newFlags(t, "")
	_, err := config.Load(fs)
	assert.Error(t, err)
}

func TestLoadRejectsNonNumericReplanningInterval(t *testing.T) {
	path := writeYAML(t, `
scene: floor.obj
agents:
  - position: [0, 0, 0]
    parameters:
      localPathReplanningInterval: "soon"
`)
	_, err := config.Load(newFlags(t, path))
	assert.Error(t, err)
}

func TestLoadAcceptsNumericReplanningInterval(t *testing.T) {
	path := writeYAML(t, `
scene: floor.obj
agents:
  - position: [0, 0, 0]
    parameters:
      localPathReplanningInterval: 0.5
`)
	_, err := config.Load(newFlags(t, path))
	assert.NoError(t, err)
}
