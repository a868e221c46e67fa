package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/go-ajax/pkg/ajax"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ajax.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
base_url: https://example.com/api
policy: first
headers:
  x-token: secret
timeout: 5s
retry:
  count: 3
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/api", cfg.BaseURL)
	assert.Equal(t, ajax.PolicyFirst, cfg.ParsedPolicy())
	assert.Equal(t, map[string]string{"x-token": "secret"}, cfg.Headers)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retry.Count)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.WaitTimeStart)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Logging.Color)
}

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, ajax.PolicyLast, cfg.ParsedPolicy())
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.Retry.Count)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_Env(t *testing.T) {
	path := writeConfig(t, "policy: first\n")
	t.Setenv("AJAX_POLICY", "all")
	t.Setenv("AJAX_RETRY_COUNT", "2")
	t.Setenv("AJAX_LOGGING_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ajax.PolicyAll, cfg.ParsedPolicy())
	assert.Equal(t, 2, cfg.Retry.Count)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Policy:  "last",
			Timeout: time.Second,
			Logging: LoggingConfig{Level: "info", Format: "console"},
		}
	}

	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr string
	}{
		{name: "valid", modify: func(cfg *Config) {}},
		{name: "empty policy", modify: func(cfg *Config) { cfg.Policy = "" }},
		{name: "relative base url", modify: func(cfg *Config) { cfg.BaseURL = "api" }, wantErr: `base_url "api" must be an absolute URL`},
		{name: "invalid policy", modify: func(cfg *Config) { cfg.Policy = "some" }, wantErr: `policy: invalid concurrency policy "some"`},
		{name: "zero timeout", modify: func(cfg *Config) { cfg.Timeout = 0 }, wantErr: "timeout must be positive"},
		{name: "negative retry", modify: func(cfg *Config) { cfg.Retry.Count = -1 }, wantErr: "retry.count cannot be negative"},
		{name: "invalid level", modify: func(cfg *Config) { cfg.Logging.Level = "trace" }, wantErr: "invalid logging level: trace"},
		{name: "invalid format", modify: func(cfg *Config) { cfg.Logging.Format = "xml" }, wantErr: "invalid logging format: xml"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.modify(cfg)
			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
