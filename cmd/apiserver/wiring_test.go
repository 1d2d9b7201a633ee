package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/internal/bootstrap"
	"github.com/turtacn/additive-lens/internal/config"
	httpserver "github.com/turtacn/additive-lens/internal/interfaces/http"
	"github.com/turtacn/additive-lens/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func wiredConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Assets.Dir = testutil.WriteFixtureAssets(t)
	cfg.Metrics.Enabled = false
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.Config) (http.Handler, func()) {
	t.Helper()
	infra, err := bootstrap.Open(context.Background(), cfg, nil)
	require.NoError(t, err)

	svc := infra.NewLookupService()
	require.NoError(t, svc.Init(context.Background()))

	rc, cleanup := buildRouterConfig(cfg, infra, svc, testutil.NewMockLogger())
	return httpserver.NewRouter(rc), func() {
		cleanup()
		infra.Close()
	}
}

func get(h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildRouterConfig_Defaults(t *testing.T) {
	cfg := wiredConfig(t)
	infra, err := bootstrap.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer infra.Close()

	rc, cleanup := buildRouterConfig(cfg, infra, infra.NewLookupService(), nil)
	defer cleanup()

	assert.NotNil(t, rc.LookupHandler)
	assert.NotNil(t, rc.HealthHandler)
	assert.Nil(t, rc.CORS)
	assert.Nil(t, rc.RateLimiter)
	assert.Nil(t, rc.Metrics)
	assert.Nil(t, rc.MetricsCollector)
	assert.Equal(t, cfg.Server.HTTP.MaxBodySize, rc.MaxBodySize)
}

func TestBuildRouterConfig_ServesLookups(t *testing.T) {
	h, done := newTestRouter(t, wiredConfig(t))
	defer done()

	rec := get(h, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(h, "/api/v1/resolve?q=e211", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SODIUM BENZOATE")
}

func TestBuildRouterConfig_CORS(t *testing.T) {
	cfg := wiredConfig(t)
	cfg.Server.HTTP.CORSAllowedOrigins = []string{"https://labels.example.test"}

	h, done := newTestRouter(t, cfg)
	defer done()

	rec := get(h, "/api/v1/resolve?q=e211", http.Header{"Origin": {"https://labels.example.test"}})
	assert.Equal(t, "https://labels.example.test", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(h, "/api/v1/resolve?q=e211", http.Header{"Origin": {"https://other.example.test"}})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildRouterConfig_RateLimit(t *testing.T) {
	cfg := wiredConfig(t)
	cfg.Server.HTTP.RateLimitRPS = 0.001
	cfg.Server.HTTP.RateLimitBurst = 1

	h, done := newTestRouter(t, cfg)
	defer done()

	assert.Equal(t, http.StatusOK, get(h, "/api/v1/resolve?q=e211", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "/api/v1/resolve?q=e211", nil).Code)

	// Health endpoints bypass the limiter.
	assert.Equal(t, http.StatusOK, get(h, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, get(h, "/healthz/detail", nil).Code)
}

func TestBuildRouterConfig_Metrics(t *testing.T) {
	cfg := wiredConfig(t)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Namespace = "apiserver_test"
	cfg.Metrics.EnableGoMetrics = false
	cfg.Metrics.EnableProcessMetrics = false

	h, done := newTestRouter(t, cfg)
	defer done()

	get(h, "/api/v1/resolve?q=e211", nil)
	rec := get(h, cfg.Metrics.Path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "apiserver_test_")
}
