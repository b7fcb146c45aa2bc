package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "experiment.state", cfg.State.Filename)
	assert.Equal(t, 5, cfg.State.Rotate)
	assert.Equal(t, 5, cfg.State.Compression)
	assert.Equal(t, 10*time.Second, cfg.State.LockTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
state:
  filename: run7.state
  rotate: 2
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "run7.state", cfg.State.Filename)
	assert.Equal(t, 2, cfg.State.Rotate)
	// Untouched fields keep their defaults.
	assert.Equal(t, 5, cfg.State.Compression)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("state:\n  filename: from-file.state\n"), 0o644))

	t.Setenv("STATEKIT_STATE_FILENAME", "from-env.state")
	t.Setenv("STATEKIT_STATE_ROTATE", "9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.state", cfg.State.Filename)
	assert.Equal(t, 9, cfg.State.Rotate)
}

func TestDottedView(t *testing.T) {
	cfg := Default()

	v, ok := cfg.Value("state.filename")
	require.True(t, ok)
	assert.Equal(t, "experiment.state", v)

	_, ok = cfg.Value("state.nope")
	assert.False(t, ok)
	_, ok = cfg.Value("state.filename.deeper")
	assert.False(t, ok)

	assert.Equal(t, "experiment.state", cfg.String("state.filename", "x"))
	assert.Equal(t, "x", cfg.String("missing", "x"))
	assert.Equal(t, 5, cfg.Int("state.rotate", -1))
	assert.Equal(t, -1, cfg.Int("log.level", -1))
}
