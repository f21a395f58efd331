package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 30*time.Second, cfg.Leader.TTL)
	assert.Equal(t, "@every 1m", cfg.Scheduler.Interval)
	assert.Equal(t, 1, cfg.Processor.ConflictRetries)
	assert.Equal(t, "auction", cfg.Queue.KeyPrefix)
	assert.Equal(t, 64, cfg.Realtime.SendBuffer)
	assert.False(t, cfg.Registration.AutoApprove)
	assert.Equal(t, "json", cfg.Log.Encoding)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("INSTANCE_ID", "edge-7")
	t.Setenv("PROCESSOR_LOCK_TTL", "3s")
	t.Setenv("REGISTRATION_AUTO_APPROVE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "edge-7", cfg.Instance.ID)
	assert.Equal(t, 3*time.Second, cfg.Processor.LockTTL)
	assert.True(t, cfg.Registration.AutoApprove)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 7000
scheduler:
  interval: "@every 5s"
processor:
  conflict_retries: 3
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "@every 5s", cfg.Scheduler.Interval)
	assert.Equal(t, 3, cfg.Processor.ConflictRetries)
	// untouched keys keep their defaults
	assert.Equal(t, "auction-engine-1", cfg.Instance.ID)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeConfig(t, "processor:\n  conflict_retries: -1\n"))
	assert.ErrorContains(t, err, "conflict_retries")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Leader:    LeaderConfig{TTL: time.Second},
			Instance:  InstanceConfig{ID: "i"},
			Processor: ProcessorConfig{LockTTL: time.Second},
			Realtime:  RealtimeConfig{SendBuffer: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty instance", func(c *Config) { c.Instance.ID = "" }, "instance.id"},
		{"zero leader ttl", func(c *Config) { c.Leader.TTL = 0 }, "leader.ttl"},
		{"zero lock ttl", func(c *Config) { c.Processor.LockTTL = 0 }, "lock_ttl"},
		{"no send buffer", func(c *Config) { c.Realtime.SendBuffer = 0 }, "send_buffer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
