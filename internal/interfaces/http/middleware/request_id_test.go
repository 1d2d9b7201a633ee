package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/additive-lens/internal/testutil"
	"github.com/turtacn/additive-lens/pkg/errors"
)

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { seen = GetRequestID(c) })

	w := serve(r, http.MethodGet, "/x", nil)
	_, err := uuid.Parse(w.Header().Get(HeaderRequestID))
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(HeaderRequestID))

	w = serve(r, http.MethodGet, "/x", map[string]string{HeaderRequestID: "client-id-1"})
	assert.Equal(t, "client-id-1", w.Header().Get(HeaderRequestID))

	w = serve(r, http.MethodGet, "/x", map[string]string{HeaderRequestID: strings.Repeat("x", 200)})
	assert.NotEqual(t, strings.Repeat("x", 200), w.Header().Get(HeaderRequestID))
}

func TestNotFound(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.NoRoute(NotFound())

	w := serve(r, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(errors.CodeNotFound), body.Code)
}

func TestRecovery(t *testing.T) {
	log := testutil.NewMockLogger()
	r := gin.New()
	r.Use(RequestID(), Recovery(log))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.True(t, log.HasMessage("error", "Panic recovered"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(errors.CodeInternal), body.Code)
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, nil)
	require.NoError(t, err)
	r := gin.New()
	r.Use(Metrics(prometheus.NewAppMetrics(collector)))
	r.GET("/api/v1/regulations/:substance", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/api/v1/regulations/citric%20acid", nil)
	serve(r, http.MethodGet, "/missing", nil)

	body := serve(collector.Handler(), http.MethodGet, "/metrics", nil).Body.String()
	assert.Contains(t, body, `path="/api/v1/regulations/:substance"`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.NotContains(t, body, "citric")
}
