package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL.Duration)
	assert.Equal(t, 10, cfg.Label.ModuleSize)
	assert.Equal(t, 60, cfg.Label.MinCaptionHeight)
	assert.NotEmpty(t, cfg.OAuth.Scopes)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: 8080
log_level: debug
session_ttl: 24h
oauth:
  client_id: abc
  client_secret: shh
label:
  module_size: 5
  border: 2
splunk:
  hec_url: https://splunk.example.com:8088/services/collector/event
  hec_token: tok
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL.Duration)
	assert.Equal(t, "abc", cfg.OAuth.ClientID)
	assert.Equal(t, 5, cfg.Label.ModuleSize)
	assert.Equal(t, 2, cfg.Label.Border)
	assert.Equal(t, "tok", cfg.Splunk.HECToken)
	// Untouched keys keep their defaults.
	assert.Equal(t, 60, cfg.Label.MinCaptionHeight)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a port"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session_ttl: soon"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SQ_PORT", "9999")
	t.Setenv("SQ_LOG_LEVEL", "warn")
	t.Setenv("SQ_SESSION_TTL", "1h")
	t.Setenv("SQ_OAUTH_CLIENT_ID", "env-client")
	t.Setenv("SQ_SPLUNK_HEC_URL", "https://hec.example.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.SessionTTL.Duration)
	assert.Equal(t, "env-client", cfg.OAuth.ClientID)
	assert.Equal(t, "https://hec.example.com", cfg.Splunk.HECURL)
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	cfg := &Config{
		DataDir:    filepath.Join(base, "data"),
		QRCodesDir: filepath.Join(base, "data", "qrcodes"),
	}
	require.NoError(t, cfg.EnsureDirs())

	info, err := os.Stat(cfg.QRCodesDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
