//go:build integration

// Package integration exercises the lookup service against real Redis and
// MinIO containers.
package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/additive-lens/internal/bootstrap"
	"github.com/turtacn/additive-lens/internal/config"
	"github.com/turtacn/additive-lens/internal/testutil"
)

// ─────────────────────────────────────────────────────────────────────────────
// Container helpers
// ─────────────────────────────────────────────────────────────────────────────

func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func startRedis(t *testing.T) string {
	return startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}, "6379")
}

func startMinIO(t *testing.T) string {
	return startContainer(t, testcontainers.ContainerRequest{
		Image:        "minio/minio:RELEASE.2024-01-16T16-07-38Z",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}, "9000")
}

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Assets.Dir = testutil.WriteFixtureAssets(t)
	cfg.Metrics.Enabled = false
	return cfg
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestLookup_RedisCache(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Redis.Addr = startRedis(t)

	ctx := context.Background()
	infra, err := bootstrap.Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer infra.Close()

	svc := infra.NewLookupService()
	require.NoError(t, svc.Init(ctx))

	first, found, err := svc.Resolve(ctx, "e211")
	require.NoError(t, err)
	require.True(t, found)

	n, err := infra.Redis.GetUnderlyingClient().DBSize(ctx).Result()
	require.NoError(t, err)
	assert.Positive(t, n)

	second, found, err := svc.Resolve(ctx, "e211")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first, second)

	// Misses are cached too and stay misses.
	_, found, err = svc.Resolve(ctx, "zzqx unobtainium")
	require.NoError(t, err)
	assert.False(t, found)
	_, found, err = svc.Resolve(ctx, "zzqx unobtainium")
	require.NoError(t, err)
	assert.False(t, found)

	for _, c := range infra.HealthCheckers(svc) {
		assert.NoError(t, c.Check(ctx), c.Name())
	}
}

func TestLookup_MinIOAssets(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Assets.Source = "minio"
	cfg.MinIO.Endpoint = startMinIO(t)
	cfg.MinIO.AccessKeyID = "minioadmin"
	cfg.MinIO.SecretAccessKey = "minioadmin"
	cfg.MinIO.CreateBucket = true

	ctx := context.Background()
	infra, err := bootstrap.Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer infra.Close()
	require.NotNil(t, infra.Assets)

	for name, ct := range map[string]string{
		cfg.Assets.Catalog:     "application/json",
		cfg.Assets.Regulations: "text/csv",
	} {
		data, err := os.ReadFile(filepath.Join(cfg.Assets.Dir, name))
		require.NoError(t, err)
		_, err = infra.Assets.Upload(ctx, name, data, ct)
		require.NoError(t, err)
	}

	objects, err := infra.Assets.List(ctx)
	require.NoError(t, err)
	assert.Len(t, objects, 2)

	svc := infra.NewLookupService()
	require.NoError(t, svc.Init(ctx))

	res, found, err := svc.Resolve(ctx, "sodium benzoate")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "SODIUM BENZOATE", res.Substance)

	codes, err := svc.Codes(ctx, res.Substance)
	require.NoError(t, err)
	assert.NotEmpty(t, codes)
}
