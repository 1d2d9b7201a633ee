package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/pkg/errors"
)

func newHealthEngine(h *HealthHandler) *gin.Engine {
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func TestLiveness(t *testing.T) {
	r := newHealthEngine(NewHealthHandler("1.2.3", NewChecker("lookup", func(context.Context) error {
		return errors.New(errors.CodeCatalogNotReady, "loading")
	})))

	w := doRequest(r, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LivenessResponse
	decode(t, w, &resp)
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestReadiness_NoCheckers(t *testing.T) {
	w := doRequest(newHealthEngine(NewHealthHandler("dev")), http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewHealthHandler("dev",
		NewChecker("lookup", func(context.Context) error { return nil }),
		NewChecker("redis", func(context.Context) error { return nil }),
	)

	w := doRequest(newHealthEngine(h), http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ReadinessResponse
	decode(t, w, &resp)
	assert.Equal(t, "ready", resp.Status)
	assert.Len(t, resp.Components, 2)
	assert.Equal(t, "healthy", resp.Components["redis"].Status)
}

func TestReadiness_OneUnhealthy(t *testing.T) {
	h := NewHealthHandler("dev",
		NewChecker("lookup", func(context.Context) error { return errors.New(errors.CodeCatalogNotReady, "assets are loading") }),
		NewChecker("redis", func(context.Context) error { return nil }),
	)

	w := doRequest(newHealthEngine(h), http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ReadinessResponse
	decode(t, w, &resp)
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["lookup"].Status)
	assert.Contains(t, resp.Components["lookup"].Error, "assets are loading")
}

func TestReadiness_CheckerTimeout(t *testing.T) {
	h := NewHealthHandler("dev", NewChecker("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	h.timeout = 20 * time.Millisecond

	w := doRequest(newHealthEngine(h), http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDetailed(t *testing.T) {
	h := NewHealthHandler("dev", NewChecker("minio", func(context.Context) error { return errors.New(errors.CodeExternalService, "down") }))

	w := doRequest(newHealthEngine(h), http.MethodGet, "/healthz/detail", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp DetailedResponse
	decode(t, w, &resp)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "dev", resp.Version)
	assert.Equal(t, "unhealthy", resp.Components["minio"].Status)
}
