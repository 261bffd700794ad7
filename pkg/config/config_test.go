package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redqueue/foreman/pkg/worker"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestResolveRegisteredName(t *testing.T) {
	RegisterSettings("mail-worker", &worker.Settings{QueueName: "mail", MaxJobs: 3})

	s, err := Resolve("mail-worker", "")
	require.NoError(t, err)
	assert.Equal(t, "mail", s.QueueName)
	assert.Equal(t, 3, s.MaxJobs)

	// Resolve hands out a copy, never the registered object itself.
	s.QueueName = "changed"
	again, err := Resolve("mail-worker", "")
	require.NoError(t, err)
	assert.Equal(t, "mail", again.QueueName)
}

func TestResolveUnknownLocator(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "nope.toml"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither a registered name nor a settings file")
}

func TestResolveSettingsFile(t *testing.T) {
	path := writeSettings(t, `
log_level = "debug"

[foreman]
workers = 4

[worker]
redis_addr = "redis.internal:6379"
queue_name = "critical"
burst = true
max_jobs = 25
job_timeout = "90s"
`)

	s, err := Resolve(path, "")
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6379", s.RedisAddr)
	assert.Equal(t, "critical", s.QueueName)
	assert.True(t, s.Burst)
	assert.Equal(t, 25, s.MaxJobs)
	assert.Equal(t, 90*time.Second, s.JobTimeout)

	// Unset keys fall back to the declared defaults.
	assert.Equal(t, worker.DefaultPollInterval, s.PollInterval)
	assert.Equal(t, worker.DefaultResultTTL, s.ResultTTL)

	assert.Equal(t, 4, Workers())
	assert.Equal(t, "debug", LogLevel())
}

func TestResolveAppliesOverrides(t *testing.T) {
	path := writeSettings(t, `
[worker]
queue_name = "critical"
`)

	s, err := Resolve(path, "worker.queue_name:mail,worker.redis_db:2")
	require.NoError(t, err)
	assert.Equal(t, "mail", s.QueueName, "override beats the settings file")
	assert.Equal(t, 2, s.RedisDB)
}

func TestResolveRejectsMalformedOverride(t *testing.T) {
	path := writeSettings(t, "[worker]\n")

	_, err := Resolve(path, "worker.queue_name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key:value")
}

func TestLoadLogConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.toml")
	require.NoError(t, os.WriteFile(path, []byte("level = \"warn\"\nformat = \"text\"\n"), 0o644))

	lc, err := LoadLogConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", lc.Level)
	assert.Equal(t, "text", lc.Format)
}

func TestLoadLogConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	lc, err := LoadLogConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, "json", lc.Format)
}
