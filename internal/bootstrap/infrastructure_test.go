package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/internal/config"
	"github.com/turtacn/additive-lens/internal/testutil"
)

func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Assets.Dir = testutil.WriteFixtureAssets(t)
	cfg.Metrics.Enabled = false
	return cfg
}

func TestOpen_NilConfig(t *testing.T) {
	_, err := Open(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestOpen_FileSourceOnly(t *testing.T) {
	cfg := fixtureConfig(t)

	infra, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer infra.Close()

	assert.Nil(t, infra.Cache)
	assert.Nil(t, infra.Events)
	assert.Nil(t, infra.MinIO)
	assert.Equal(t, lookup.FileSource{Dir: cfg.Assets.Dir}, infra.AssetSource())

	svc := infra.NewLookupService()
	checkers := infra.HealthCheckers(svc)
	require.Len(t, checkers, 1)
	assert.Equal(t, "assets", checkers[0].Name())
	assert.Error(t, checkers[0].Check(context.Background()))

	require.NoError(t, svc.Init(context.Background()))
	assert.NoError(t, checkers[0].Check(context.Background()))

	res, found, err := svc.Resolve(context.Background(), "e211")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "SODIUM BENZOATE", res.Substance)
}

func TestHealthCheckers_EmptyCatalogFailsAssets(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Assets.Dir = testutil.WriteAssets(t, testutil.CatalogJSON(t, nil), testutil.RegulationCSV(nil))

	infra, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer infra.Close()

	svc := infra.NewLookupService()
	require.NoError(t, svc.Init(context.Background()))

	checkers := infra.HealthCheckers(svc)
	require.Len(t, checkers, 1)
	err = checkers[0].Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no records")
}

func TestOpen_MetricsEnabled(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "bootstrap_test"
	cfg.Metrics.EnableGoMetrics = false
	cfg.Metrics.EnableProcessMetrics = false

	infra, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer infra.Close()

	require.NotNil(t, infra.Metrics)
	assert.NotNil(t, infra.Collector.Handler())
}

func TestOpen_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := fixtureConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Redis.Addr = mr.Addr()

	infra, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer infra.Close()

	require.NotNil(t, infra.Cache)
	svc := infra.NewLookupService()
	require.NoError(t, svc.Init(context.Background()))

	_, found, err := svc.Resolve(context.Background(), "red 40")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotEmpty(t, mr.Keys())

	checkers := infra.HealthCheckers(svc)
	require.Len(t, checkers, 2)
	assert.Equal(t, "redis", checkers[1].Name())
	assert.NoError(t, checkers[1].Check(context.Background()))

	mr.Close()
	assert.Error(t, checkers[1].Check(context.Background()))
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := fixtureConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Redis.Addr = addr

	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestLookupConfig(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Matching.SuggestLimit = 9
	lc := LookupConfig(cfg)

	assert.Equal(t, cfg.Assets.Catalog, lc.CatalogName)
	assert.Equal(t, cfg.Assets.Regulations, lc.RegulationsName)
	assert.Equal(t, cfg.Matching.Threshold, lc.Resolver.Threshold)
	assert.Equal(t, 9, lc.SuggestLimit)
	assert.Equal(t, cfg.Kafka.Source, lc.EventSource)
}
