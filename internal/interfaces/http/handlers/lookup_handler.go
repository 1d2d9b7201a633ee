package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/internal/intelligence/additive"
	"github.com/turtacn/additive-lens/internal/intelligence/regulation"
)

// maxSuggestLimit caps the limit query parameter of /suggest.
const maxSuggestLimit = 50

// LookupHandler exposes the lookup service under /api/v1.
type LookupHandler struct {
	svc    lookup.Service
	logger logging.Logger
}

// NewLookupHandler creates a new LookupHandler.
func NewLookupHandler(svc lookup.Service, logger logging.Logger) *LookupHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &LookupHandler{svc: svc, logger: logger.Named("lookup_handler")}
}

// RegisterRoutes mounts the lookup endpoints on r.
func (h *LookupHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/resolve", h.Resolve)
	r.POST("/resolve", h.ResolveBatch)
	r.POST("/lookup", h.Lookup)
	r.GET("/regulations/:substance", h.Regulations)
	r.POST("/scan", h.Scan)
	r.GET("/suggest", h.Suggest)
	r.GET("/status", h.Status)
}

// ─── Request / response bodies ───────────────────────────────────────────────

// ResolveResponse answers GET /resolve. Suggestions are only filled on a miss.
type ResolveResponse struct {
	Query       string                `json:"query"`
	Found       bool                  `json:"found"`
	Result      *additive.MatchResult `json:"result,omitempty"`
	Suggestions []additive.Suggestion `json:"suggestions,omitempty"`
}

// QueriesRequest is the body of the batch endpoints.
type QueriesRequest struct {
	Queries []string `json:"queries" binding:"required"`
}

// BatchResolveResponse answers POST /resolve.
type BatchResolveResponse struct {
	Requested int                     `json:"requested"`
	Resolved  int                     `json:"resolved"`
	Results   []*additive.MatchResult `json:"results"`
}

// LookupResponse answers POST /lookup.
type LookupResponse struct {
	Requested int                `json:"requested"`
	Additives []*lookup.Additive `json:"additives"`
}

// RegulationsResponse answers GET /regulations/:substance.
type RegulationsResponse struct {
	Substance string            `json:"substance"`
	Codes     []string          `json:"codes"`
	Links     []regulation.Link `json:"links"`
}

// SuggestResponse answers GET /suggest.
type SuggestResponse struct {
	Query       string                `json:"query"`
	Suggestions []additive.Suggestion `json:"suggestions"`
}

// ─── Handlers ────────────────────────────────────────────────────────────────

// Resolve handles GET /resolve?q=.
func (h *LookupHandler) Resolve(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		badRequest(c, "query parameter q is required")
		return
	}

	ctx := c.Request.Context()
	res, found, err := h.svc.Resolve(ctx, q)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ResolveResponse{Query: q, Found: found, Result: res}
	if !found {
		suggestions, err := h.svc.Suggest(ctx, q, 0)
		if err != nil {
			h.logger.Warn("Suggest failed", logging.String("query", q), logging.Err(err))
		}
		resp.Suggestions = suggestions
	}
	c.JSON(http.StatusOK, resp)
}

// ResolveBatch handles POST /resolve.
func (h *LookupHandler) ResolveBatch(c *gin.Context) {
	var req QueriesRequest
	if !bindJSON(c, &req) {
		return
	}
	results, err := h.svc.ResolveMany(c.Request.Context(), req.Queries)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []*additive.MatchResult{}
	}
	c.JSON(http.StatusOK, BatchResolveResponse{
		Requested: len(req.Queries),
		Resolved:  len(results),
		Results:   results,
	})
}

// Lookup handles POST /lookup.
func (h *LookupHandler) Lookup(c *gin.Context) {
	var req QueriesRequest
	if !bindJSON(c, &req) {
		return
	}
	additives, err := h.svc.Lookup(c.Request.Context(), req.Queries)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LookupResponse{Requested: len(req.Queries), Additives: additives})
}

// Regulations handles GET /regulations/:substance.
func (h *LookupHandler) Regulations(c *gin.Context) {
	substance := strings.TrimSpace(c.Param("substance"))
	if substance == "" {
		badRequest(c, "substance is required")
		return
	}
	codes, err := h.svc.Codes(c.Request.Context(), substance)
	if err != nil {
		respondError(c, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	// Link codes are display forms ("170" for the part); Codes keeps the raw ones.
	links := regulation.URLs(codes)
	c.JSON(http.StatusOK, RegulationsResponse{Substance: substance, Codes: codes, Links: links})
}

// Scan handles POST /scan.
func (h *LookupHandler) Scan(c *gin.Context) {
	var req lookup.ScanRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.svc.Scan(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Suggest handles GET /suggest?q=&limit=.
func (h *LookupHandler) Suggest(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		badRequest(c, "query parameter q is required")
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSuggestLimit {
			badRequest(c, "limit must be an integer in [1, "+strconv.Itoa(maxSuggestLimit)+"]")
			return
		}
		limit = n
	}
	suggestions, err := h.svc.Suggest(c.Request.Context(), q, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if suggestions == nil {
		suggestions = []additive.Suggestion{}
	}
	c.JSON(http.StatusOK, SuggestResponse{Query: q, Suggestions: suggestions})
}

// Status handles GET /status.
func (h *LookupHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status())
}
