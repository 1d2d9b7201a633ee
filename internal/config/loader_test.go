package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/internal/testutil"
	"github.com/turtacn/additive-lens/pkg/errors"
)

const validConfigYAML = `
server:
  http:
    host: "127.0.0.1"
    port: 8081
    mode: debug
  grpc:
    enabled: true
    port: 9091
log:
  level: debug
  format: console
assets:
  source: file
  dir: /srv/additivelens
matching:
  threshold: 0.3
  workers: 2
cache:
  enabled: true
  ttl: 5m
  redis:
    addr: "cache:6379"
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
  topic: additive.resolved
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.HTTP.Host)
	assert.Equal(t, 8081, cfg.Server.HTTP.Port)
	assert.True(t, cfg.Server.GRPC.Enabled)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "/srv/additivelens", cfg.Assets.Dir)
	assert.Equal(t, DefaultCatalogName, cfg.Assets.Catalog)
	assert.Equal(t, float32(0.3), cfg.Matching.Threshold)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "invalid_yaml: ["))
	require.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "server:\n  http:\n    port: 70000\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.http.port")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ADDITIVELENS_SERVER_HTTP_PORT", "9999")
	t.Setenv("ADDITIVELENS_CACHE_REDIS_ADDR", "redis.internal:6380")

	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.HTTP.Port)
	assert.Equal(t, "redis.internal:6380", cfg.Cache.Redis.Addr)
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	t.Setenv("ADDITIVELENS_ASSETS_DIR", "/data/assets")
	t.Setenv("ADDITIVELENS_MATCHING_THRESHOLD", "0.4")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/data/assets", cfg.Assets.Dir)
	assert.Equal(t, float32(0.4), cfg.Matching.Threshold)
	assert.Equal(t, DefaultHTTPPort, cfg.Server.HTTP.Port)
	assert.Equal(t, DefaultMetricsNamespace, cfg.Metrics.Namespace)
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAssetDir, cfg.Assets.Dir)
}

func TestMustLoad_Success(t *testing.T) {
	assert.NotPanics(t, func() { MustLoad(createTempConfigFile(t, validConfigYAML)) })
}

func TestMustLoad_Panic(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	changed := make(chan *Config, 4)
	require.NoError(t, Watch(path, testutil.NewMockLogger(), func(cfg *Config) { changed <- cfg }))

	updated := validConfigYAML + "\nmetrics:\n  path: /internal/metrics\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "/internal/metrics", cfg.Metrics.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("config change not observed")
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "missing.yaml"), nil, func(*Config) {})
	require.Error(t, err)
}
