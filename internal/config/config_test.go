package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "Java", cfg.Language)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "file", cfg.Session.Backend)
	assert.Equal(t, "session.json", filepath.Base(cfg.Session.Path))
	assert.Equal(t, 3*time.Second, cfg.Notifications.TTL)
	assert.Equal(t, 5, cfg.Notifications.Max)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("CM_TEST_REDIS", "redis.internal:6379")
	path := writeConfig(t, `
base_url: https://codemaster.example.com/api/v1
language: Kotlin
timeout: 5s
session:
  backend: redis
  redis_addr: ${CM_TEST_REDIS}
  redis_password: ${CM_TEST_UNSET:fallback}
github:
  client_id: Iv1.abc
notifications:
  ttl: 1500ms
  max: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://codemaster.example.com/api/v1", cfg.BaseURL)
	assert.Equal(t, "Kotlin", cfg.Language)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Session.RedisAddr)
	assert.Equal(t, "fallback", cfg.Session.RedisPassword)
	assert.Equal(t, "Iv1.abc", cfg.GitHub.ClientID)
	assert.Equal(t, 1500*time.Millisecond, cfg.Notifications.TTL)
	assert.Equal(t, 3, cfg.Notifications.Max)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "language: Java\nsession:\n  backend: memory\n")
	t.Setenv("CODEMASTER_LANGUAGE", "Python")
	t.Setenv("CODEMASTER_TIMEOUT", "2s")
	t.Setenv("CODEMASTER_BASE_URL", "http://127.0.0.1:9090/api/v1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Python", cfg.Language)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "http://127.0.0.1:9090/api/v1", cfg.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "bad yaml", content: "base_url: [unterminated"},
		{name: "relative url", content: "base_url: /api/v1"},
		{name: "unknown backend", content: "session:\n  backend: etcd\n"},
		{name: "redis without address", content: "session:\n  backend: redis\n"},
		{name: "bad timeout env", content: "session:\n  backend: memory\n", env: map[string]string{"CODEMASTER_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
