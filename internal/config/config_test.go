package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Empty(t, cfg.CustomDirs)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sysfacts.yaml")
	content := `custom_dirs:
  - /etc/sysfacts/custom
external_dirs:
  - /etc/sysfacts/external
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/etc/sysfacts/custom"}, cfg.CustomDirs)
	assert.Equal(t, []string{"/etc/sysfacts/external"}, cfg.ExternalDirs)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sysfacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("custom_dirs: [unclosed"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverridesLevel(t *testing.T) {
	t.Setenv("SYSFACTS_LOG_LEVEL", "error")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}
