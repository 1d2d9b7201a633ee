package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/additive-lens/internal/intelligence/additive"
	"github.com/turtacn/additive-lens/internal/interfaces/http/handlers"
	"github.com/turtacn/additive-lens/internal/interfaces/http/middleware"
	"github.com/turtacn/additive-lens/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, mutate func(*RouterConfig)) (*gin.Engine, prometheus.MetricsCollector) {
	t.Helper()
	svc := lookup.NewService(lookup.Config{Resolver: additive.DefaultResolverConfig()},
		lookup.FileSource{Dir: testutil.WriteFixtureAssets(t)}, nil)
	require.NoError(t, svc.Init(context.Background()))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, nil)
	require.NoError(t, err)

	cfg := RouterConfig{
		LookupHandler: handlers.NewLookupHandler(svc, nil),
		HealthHandler: handlers.NewHealthHandler("test", handlers.NewChecker("lookup", func(context.Context) error {
			return nil
		})),
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           testutil.NewMockLogger(),
		Metrics:          prometheus.NewAppMetrics(collector),
		MetricsCollector: collector,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg), collector
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNewRouter_HealthEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, get(r, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(r, "/readyz").Code)
	assert.Equal(t, http.StatusOK, get(r, "/healthz/detail").Code)
}

func TestNewRouter_LookupRoutesRegistered(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	routes := map[string]bool{}
	for _, ri := range r.Routes() {
		routes[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"GET /api/v1/resolve",
		"POST /api/v1/resolve",
		"POST /api/v1/lookup",
		"GET /api/v1/regulations/:substance",
		"POST /api/v1/scan",
		"GET /api/v1/suggest",
		"GET /api/v1/status",
		"GET /metrics",
	} {
		assert.True(t, routes[want], want)
	}

	w := get(r, "/api/v1/resolve?q=e211")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, func(c *RouterConfig) { c.MetricsPath = "/internal/metrics" })

	get(r, "/api/v1/regulations/citric%20acid")
	w := get(r, "/internal/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/api/v1/regulations/:substance"`)
}

func TestNewRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := get(r, "/api/v2/anything")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "COMMON_005")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNewRouter_NilHandlers_NoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		r := NewRouter(RouterConfig{})
		assert.Equal(t, http.StatusNotFound, get(r, "/healthz").Code)
	})
}

func TestNewRouter_RateLimitAndCORS(t *testing.T) {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = []string{"https://labels.example.com"}
	r, _ := newTestRouter(t, func(c *RouterConfig) {
		c.CORS = &cors
		c.RateLimiter = middleware.NewTokenBucketLimiter(0.001, 1, 0)
		c.RateLimit = middleware.DefaultRateLimitConfig()
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://labels.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://labels.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/v1/status").Code)
	assert.Equal(t, http.StatusOK, get(r, "/healthz").Code)
}

func TestNewRouter_BodyLimit(t *testing.T) {
	r, _ := newTestRouter(t, func(c *RouterConfig) { c.MaxBodySize = 32 })

	body := `{"queries":["` + strings.Repeat("a", 64) + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lookup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNewRouter_Recovery(t *testing.T) {
	log := testutil.NewMockLogger()
	r := NewRouter(RouterConfig{Logger: log})
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	assert.Equal(t, http.StatusInternalServerError, get(r, "/boom").Code)
	assert.True(t, log.HasMessage("error", "Panic recovered"))
}
