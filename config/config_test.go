package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.Timeout)
	assert.Equal(t, int64(20<<20), cfg.App.MaxUploadBytes)
	assert.Equal(t, int64(16_000_000), cfg.App.MaxPixels)
	assert.True(t, cfg.App.Parallel)
	assert.Equal(t, 45*time.Second, cfg.App.RequestTimeout)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "cartoon-conversions", cfg.Kafka.Topic)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CARTOON_SERVER_PORT", "9090")
	t.Setenv("CARTOON_APP_PARALLEL", "false")
	t.Setenv("CARTOON_APP_REQUEST_TIMEOUT", "5s")
	t.Setenv("CARTOON_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Chdir(t.TempDir())

	v, err := LoadConfig()
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.App.Parallel)
	assert.Equal(t, 5*time.Second, cfg.App.RequestTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("CARTOON_TEST_KEY", "value")

	assert.Equal(t, "value", GetEnv("CARTOON_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("CARTOON_MISSING_KEY", "fallback"))
}

func TestLoadConfigFromConfigPath(t *testing.T) {
	dir := t.TempDir()
	yaml := "server:\n  port: \"7070\"\napp:\n  seed: 42\nkafka:\n  enabled: true\n  brokers:\n    - broker:9092\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv(ConfigPathEnv, dir)
	t.Chdir(t.TempDir())

	v, err := LoadConfig()
	require.NoError(t, err)
	cfg, err := ParseConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, uint64(42), cfg.App.Seed)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"broker:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "info", cfg.Log.Level)
}
