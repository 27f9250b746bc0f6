package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// yamlSafePath converts backslashes so Windows paths survive YAML quoting.
func yamlSafePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_File(t *testing.T) {
	dbPath := yamlSafePath(filepath.Join(t.TempDir(), "db"))
	path := writeConfig(t, `
logging:
  level: debug
  format: json
metadata:
  type: badger
  badger:
    path: "`+dbPath+`"
oplock:
  break_timeout: 5s
server:
  time_zone: UTC
shares:
  - name: projects
  - name: printer
    type: printq
  - name: archive
    read_only: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "badger", cfg.Metadata.Type)
	assert.Equal(t, dbPath, cfg.Metadata.Badger.Path)
	assert.Equal(t, 5*time.Second, cfg.Oplock.BreakTimeout)
	assert.Equal(t, "UTC", cfg.Server.TimeZone)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)

	require.Len(t, cfg.Shares, 3)
	assert.Equal(t, "disk", cfg.Shares[0].Type)
	assert.Equal(t, "printq", cfg.Shares[1].Type)
	assert.True(t, cfg.Shares[2].ReadOnly)
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "logging: [unclosed\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
metadata:
  type: badger
shares:
  - name: data
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata.badger.path")
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: INFO
shares:
  - name: data
`)
	t.Setenv("DITTOSMB_LOGGING_LEVEL", "WARN")
	t.Setenv("DITTOSMB_OPLOCK_BREAK_TIMEOUT", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Oplock.BreakTimeout)
}

func TestMustLoad_MissingFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsmb config init")

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, err = MustLoad("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), GetDefaultConfigPath())
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "DEBUG"
	cfg.Shares = append(cfg.Shares, ShareConfig{Name: "archive", Type: "disk", ReadOnly: true})

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "dittosmb"), GetConfigDir())
	assert.Equal(t, filepath.Join(dir, "dittosmb", "config.yaml"), GetDefaultConfigPath())
	assert.False(t, DefaultConfigExists())

	_, err := InitConfig(false)
	require.NoError(t, err)
	assert.True(t, DefaultConfigExists())
}
