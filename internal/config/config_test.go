package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.APIURL)
	assert.Equal(t, filepath.Join(dir, "data", "pawpilot"), cfg.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:8080", cfg.Serve.Listen)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoadConfigFileAndEnvPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "pawpilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://localhost:8000/api
identity:
  url: http://localhost:9099
  api_key: file-key
log:
  level: DEBUG
  format: json
timeout: 5s
`), 0o600))
	t.Setenv("PAWPILOT_IDENTITY_API_KEY", "env-key")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", cfg.APIURL)
	assert.Equal(t, "http://localhost:9099", cfg.Identity.URL)
	assert.Equal(t, "env-key", cfg.Identity.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadReadsDefaultLocation(t *testing.T) {
	dir := isolate(t)
	cfgDir := filepath.Join(dir, "config", "pawpilot")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("serve:\n  listen: 0.0.0.0:9000\n"), 0o600))

	assert.Equal(t, cfgDir, Dir())
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Serve.Listen)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)

	v := New()
	v.Set(KeyAPIURL, "not a url")
	_, err := Load(v, "")
	assert.Error(t, err)

	v = New()
	v.Set(KeyLogFormat, "xml")
	_, err = Load(v, "")
	assert.Error(t, err)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unterminated"), 0o600))

	_, err := Load(New(), path)
	assert.Error(t, err)
}
