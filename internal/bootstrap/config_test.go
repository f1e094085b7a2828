package bootstrap

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/target/elearn-admin/config"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestInitLogger_JSON(t *testing.T) {
	restoreDefaultLogger(t)
	var buf bytes.Buffer

	logger := InitLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("dropped")
	logger.Warn("kept", "component", "test")

	out := strings.TrimSpace(buf.String())
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "dropped")
	assert.Equal(t, "kept", gjson.Get(out, "msg").String())
	assert.Equal(t, "test", gjson.Get(out, "component").String())
	assert.Same(t, logger, slog.Default())
}

func TestInitLogger_Text(t *testing.T) {
	restoreDefaultLogger(t)
	var buf bytes.Buffer

	logger := InitLogger(config.LogConfig{Level: "debug", Format: "text"}, &buf)
	logger.Debug("hello", "k", "v")

	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/auth", cfg.Auth.BaseURL)
	assert.Equal(t, "http://localhost:8000/api/admin", cfg.API.BaseURL)
	assert.Equal(t, config.MarkerBackendFile, cfg.Storage.Backend)
}

func TestLoadConfig_InvalidBaseURL(t *testing.T) {
	t.Setenv("AUTH_BASE_URL", "not a url")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "BaseURL")
}

func TestLoadConfig_ParseError(t *testing.T) {
	t.Setenv("AUTH_TIMEOUT", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidateConfig_Nil(t *testing.T) {
	require.Error(t, ValidateConfig(nil))
}
