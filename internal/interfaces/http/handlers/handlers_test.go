package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/internal/intelligence/additive"
	"github.com/turtacn/additive-lens/internal/intelligence/regulation"
	"github.com/turtacn/additive-lens/internal/interfaces/http/middleware"
	"github.com/turtacn/additive-lens/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// Mock Definitions
// ============================================================================

type mockLookupService struct {
	mock.Mock
}

func (m *mockLookupService) Init(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockLookupService) Start(ctx context.Context) { m.Called(ctx) }

func (m *mockLookupService) WaitReady(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockLookupService) Ready() bool { return m.Called().Bool(0) }

func (m *mockLookupService) Status() lookup.Status {
	return m.Called().Get(0).(lookup.Status)
}

func (m *mockLookupService) Resolve(ctx context.Context, q string) (*additive.MatchResult, bool, error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(*additive.MatchResult)
	return res, args.Bool(1), args.Error(2)
}

func (m *mockLookupService) ResolveMany(ctx context.Context, qs []string) ([]*additive.MatchResult, error) {
	args := m.Called(ctx, qs)
	res, _ := args.Get(0).([]*additive.MatchResult)
	return res, args.Error(1)
}

func (m *mockLookupService) Lookup(ctx context.Context, qs []string) ([]*lookup.Additive, error) {
	args := m.Called(ctx, qs)
	res, _ := args.Get(0).([]*lookup.Additive)
	return res, args.Error(1)
}

func (m *mockLookupService) Codes(ctx context.Context, s string) ([]string, error) {
	args := m.Called(ctx, s)
	res, _ := args.Get(0).([]string)
	return res, args.Error(1)
}

func (m *mockLookupService) Links(ctx context.Context, s string) ([]regulation.Link, error) {
	args := m.Called(ctx, s)
	res, _ := args.Get(0).([]regulation.Link)
	return res, args.Error(1)
}

func (m *mockLookupService) Suggest(ctx context.Context, q string, limit int) ([]additive.Suggestion, error) {
	args := m.Called(ctx, q, limit)
	res, _ := args.Get(0).([]additive.Suggestion)
	return res, args.Error(1)
}

func (m *mockLookupService) Scan(ctx context.Context, req *lookup.ScanRequest) (*lookup.ScanReport, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*lookup.ScanReport)
	return res, args.Error(1)
}

// ============================================================================
// Helpers
// ============================================================================

func newFixtureService(t *testing.T) lookup.Service {
	t.Helper()
	svc := lookup.NewService(lookup.Config{Resolver: additive.DefaultResolverConfig()},
		lookup.FileSource{Dir: testutil.WriteFixtureAssets(t)}, nil)
	require.NoError(t, svc.Init(context.Background()))
	return svc
}

func newLookupEngine(svc lookup.Service) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	NewLookupHandler(svc, testutil.NewMockLogger()).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}
