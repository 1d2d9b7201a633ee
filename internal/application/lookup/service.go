package lookup

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/additive-lens/internal/infrastructure/database/redis"
	"github.com/turtacn/additive-lens/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/additive-lens/internal/intelligence/additive"
	"github.com/turtacn/additive-lens/internal/intelligence/common"
	"github.com/turtacn/additive-lens/internal/intelligence/regulation"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// ============================================================================
// Constants & DTOs
// ============================================================================

const (
	DefaultCatalogName     = "catalog.json"
	DefaultRegulationsName = "regulations.csv"
	DefaultCacheTTL        = 15 * time.Minute
	DefaultSuggestLimit    = 5
	MaxBatchQueries        = 500

	cacheName = "redis"
)

// Config wires the service to its assets and tunes lookups.
type Config struct {
	CatalogName     string                  `mapstructure:"catalog"`
	RegulationsName string                  `mapstructure:"regulations"`
	Resolver        additive.ResolverConfig `mapstructure:"matching"`
	CacheTTL        time.Duration           `mapstructure:"cache_ttl"`
	SuggestLimit    int                     `mapstructure:"suggest_limit"`
	EventSource     string                  `mapstructure:"event_source"`
}

func (c *Config) applyDefaults() {
	if c.CatalogName == "" {
		c.CatalogName = DefaultCatalogName
	}
	if c.RegulationsName == "" {
		c.RegulationsName = DefaultRegulationsName
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.SuggestLimit <= 0 {
		c.SuggestLimit = DefaultSuggestLimit
	}
	if c.EventSource == "" {
		c.EventSource = "additivelens"
	}
}

// Additive is a resolved additive prepared for display, with its regulation
// references attached.
type Additive struct {
	Query           string            `json:"query"`
	Substance       string            `json:"substance"`
	CatalogName     string            `json:"catalog_name"`
	OtherNames      string            `json:"other_names,omitempty"`
	TechnicalEffect string            `json:"technical_effect,omitempty"`
	Method          additive.Method   `json:"method"`
	Score           float32           `json:"score,omitempty"`
	Confidence      string            `json:"confidence,omitempty"`
	CFRCodes        []string          `json:"cfr_codes"`
	Links           []regulation.Link `json:"links"`
}

// Status summarizes the loaded assets. Ready is false for a loaded catalog
// without records.
type Status struct {
	State             common.State `json:"state"`
	Ready             bool         `json:"ready"`
	Error             string       `json:"error,omitempty"`
	CatalogRecords    int          `json:"catalog_records"`
	SkippedRecords    int          `json:"skipped_records"`
	Dimension         int          `json:"dimension"`
	RegulationEntries int          `json:"regulation_entries"`
	LoadedAt          time.Time    `json:"loaded_at,omitempty"`
	LoadDuration      string       `json:"load_duration,omitempty"`
}

// ============================================================================
// Service
// ============================================================================

// Service is the application entry point for additive lookups.
type Service interface {
	Init(ctx context.Context) error
	Start(ctx context.Context)
	WaitReady(ctx context.Context) error
	Ready() bool
	Status() Status

	Resolve(ctx context.Context, query string) (*additive.MatchResult, bool, error)
	ResolveMany(ctx context.Context, queries []string) ([]*additive.MatchResult, error)
	Lookup(ctx context.Context, queries []string) ([]*Additive, error)
	Codes(ctx context.Context, substance string) ([]string, error)
	Links(ctx context.Context, substance string) ([]regulation.Link, error)
	Suggest(ctx context.Context, query string, limit int) ([]additive.Suggestion, error)
	Scan(ctx context.Context, req *ScanRequest) (*ScanReport, error)
}

type service struct {
	cfg       Config
	loader    *assetLoader
	lifecycle *common.Lifecycle[*Assets]
	cache     redis.Cache
	events    kafka.EventPublisher
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// Option configures optional collaborators.
type Option func(*service)

// WithCache enables the result cache.
func WithCache(c redis.Cache) Option {
	return func(s *service) { s.cache = c }
}

// WithEvents publishes resolution events.
func WithEvents(p kafka.EventPublisher) Option {
	return func(s *service) { s.events = p }
}

// WithMetrics records lookup metrics.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *service) { s.metrics = m }
}

// NewService builds a service reading its assets from source. Nothing is
// loaded until Init or Start.
func NewService(cfg Config, source AssetSource, logger logging.Logger, opts ...Option) Service {
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &service{
		cfg:       cfg,
		lifecycle: common.NewLifecycle[*Assets](),
		events:    kafka.NewNoopPublisher(),
		metrics:   prometheus.NewNoopAppMetrics(),
		logger:    logger.Named("lookup"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.loader = &assetLoader{
		source:      source,
		catalogName: cfg.CatalogName,
		regsName:    cfg.RegulationsName,
		resolverCfg: cfg.Resolver,
		logger:      s.logger,
		metrics:     s.metrics,
	}
	return s
}

// NewServiceFromAssets builds a service over assets already in memory. It is
// ready immediately.
func NewServiceFromAssets(cfg Config, assets *Assets, logger logging.Logger, opts ...Option) Service {
	s := NewService(cfg, nil, logger, opts...).(*service)
	_, _ = s.lifecycle.Load(context.Background(), func(context.Context) (*Assets, error) {
		return assets, nil
	})
	return s
}

// ============================================================================
// Lifecycle
// ============================================================================

func (s *service) loadFn(ctx context.Context) (*Assets, error) {
	assets, err := s.loader.load(ctx)
	if err != nil {
		s.logger.Error("Asset load failed", logging.Err(err))
		return nil, err
	}
	stats := assets.Catalog.Stats()
	if err := s.events.PublishAssetsLoaded(ctx, kafka.AssetsLoadedPayload{
		CatalogRecords:    stats.Loaded,
		SkippedRecords:    stats.Skipped,
		RegulationEntries: assets.Index.Len(),
		Dimension:         stats.Dimension,
		LoadedAt:          time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("Failed to publish assets loaded event", logging.Err(err))
	}
	return assets, nil
}

// Init loads the assets and blocks until they are ready or failed.
func (s *service) Init(ctx context.Context) error {
	_, err := s.lifecycle.Load(ctx, s.loadFn)
	return err
}

// Start loads the assets in the background.
func (s *service) Start(ctx context.Context) {
	s.lifecycle.Start(ctx, s.loadFn)
}

func (s *service) WaitReady(ctx context.Context) error {
	_, err := s.lifecycle.Wait(ctx)
	return err
}

// Ready reports a successful load of a catalog with at least one record.
// Flavor phrases still resolve against an empty catalog.
func (s *service) Ready() bool {
	if !s.lifecycle.Ready() {
		return false
	}
	assets, _ := s.lifecycle.Result()
	return assets != nil && assets.Catalog.Ready()
}

func (s *service) Status() Status {
	st := Status{State: s.lifecycle.State(), Ready: s.Ready()}
	assets, err := s.lifecycle.Result()
	if err != nil {
		st.Error = err.Error()
	} else if assets != nil && !st.Ready {
		st.Error = "catalog has no records"
	}
	if assets != nil {
		stats := assets.Catalog.Stats()
		st.CatalogRecords = stats.Loaded
		st.SkippedRecords = stats.Skipped
		st.Dimension = stats.Dimension
		st.RegulationEntries = assets.Index.Len()
		at, took := s.lifecycle.LoadedAt()
		st.LoadedAt = at
		st.LoadDuration = took.String()
	}
	return st
}

func (s *service) assets() (*Assets, error) {
	if !s.lifecycle.Ready() {
		_, err := s.lifecycle.Result()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeCatalogNotReady, "assets failed to load")
		}
		return nil, errors.Newf(errors.CodeCatalogNotReady, "assets are %s", s.lifecycle.State())
	}
	assets, _ := s.lifecycle.Result()
	return assets, nil
}

// ============================================================================
// Resolution
// ============================================================================

// Resolve runs the direct path then the search path for one query. A miss is
// (nil, false, nil).
func (s *service) Resolve(ctx context.Context, query string) (*additive.MatchResult, bool, error) {
	assets, err := s.assets()
	if err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	res := s.cached(ctx, "resolve:"+cacheKey(query), func() *additive.MatchResult {
		r, _ := assets.Resolver.Resolve(query)
		return r
	})
	s.record(res, time.Since(start))
	if res == nil {
		return nil, false, nil
	}
	res = withResolvedQuery(res, query)
	s.publish(ctx, []*additive.MatchResult{res}, assets.Index)
	return res, true, nil
}

// ResolveMany resolves queries on the resolver's worker pool. Misses are
// omitted and order is kept.
func (s *service) ResolveMany(ctx context.Context, queries []string) ([]*additive.MatchResult, error) {
	assets, err := s.assets()
	if err != nil {
		return nil, err
	}
	if len(queries) > MaxBatchQueries {
		return nil, errors.Newf(errors.CodeInvalidParam, "at most %d queries per batch, got %d", MaxBatchQueries, len(queries))
	}

	start := time.Now()
	results, err := assets.Resolver.ResolveMany(ctx, queries)
	if err != nil {
		return nil, err
	}
	prometheus.RecordBatch(s.metrics, "resolve_many", len(queries), time.Since(start))
	s.publish(ctx, results, assets.Index)
	return results, nil
}

// Lookup upper-cases and de-duplicates queries, resolves each through the
// direct path and then the search path, and returns display-ready records
// with their regulation codes. Queries that do not resolve are left out.
func (s *service) Lookup(ctx context.Context, queries []string) ([]*Additive, error) {
	assets, err := s.assets()
	if err != nil {
		return nil, err
	}
	if len(queries) > MaxBatchQueries {
		return nil, errors.Newf(errors.CodeInvalidParam, "at most %d queries per batch, got %d", MaxBatchQueries, len(queries))
	}
	return s.lookup(ctx, assets, "lookup", queries)
}

// lookup resolves queries in order without a batch limit. operation labels
// the batch metric.
func (s *service) lookup(ctx context.Context, assets *Assets, operation string, queries []string) ([]*Additive, error) {
	batchStart := time.Now()
	seen := make(map[string]struct{}, len(queries))
	out := make([]*Additive, 0, len(queries))
	var hits []*additive.MatchResult
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		upper := strings.ToUpper(q)
		if _, dup := seen[upper]; dup {
			continue
		}
		seen[upper] = struct{}{}

		start := time.Now()
		res := s.cached(ctx, "lookup:"+cacheKey(upper), func() *additive.MatchResult {
			return lookupOne(assets.Resolver, upper)
		})
		s.record(res, time.Since(start))
		if res == nil {
			continue
		}
		res = withLookupQuery(res, upper)
		hits = append(hits, res)
		out = append(out, toAdditive(upper, res, assets.Index))
	}
	prometheus.RecordBatch(s.metrics, operation, len(queries), time.Since(batchStart))
	s.publish(ctx, hits, assets.Index)
	return out, nil
}

// lookupOne tries the direct path, then search.
func lookupOne(r *additive.Resolver, upper string) *additive.MatchResult {
	if res, ok := r.ResolveDirect(upper); ok {
		return res
	}
	res, ok := r.Search(upper)
	if !ok {
		return nil
	}
	return res
}

// withResolvedQuery stamps a copy of res with this call's cleaned query. A
// result from another spelling with the same cache key carries that
// spelling; a color-substituted search term is left as is.
func withResolvedQuery(res *additive.MatchResult, query string) *additive.MatchResult {
	out := *res
	if cleaned := additive.CleanQuery(query); strings.EqualFold(out.OriginalQuery, cleaned) {
		out.OriginalQuery = cleaned
	}
	return &out
}

// withLookupQuery stamps a copy of res the way Lookup reports queries: a
// search hit carries the query as given, a direct or flavor hit the cleaned
// query.
func withLookupQuery(res *additive.MatchResult, upper string) *additive.MatchResult {
	out := *res
	if out.Method == additive.MethodSearch {
		out.OriginalQuery = upper
	} else {
		out.OriginalQuery = additive.CleanQuery(upper)
	}
	return &out
}

func toAdditive(query string, res *additive.MatchResult, index *regulation.Index) *Additive {
	codes := index.Codes(res.Substance)
	a := &Additive{
		Query:           query,
		Substance:       additive.FormatChemicalName(res.Substance),
		CatalogName:     res.Substance,
		OtherNames:      additive.FormatOtherNames(res.OtherNames, res.Substance),
		TechnicalEffect: additive.FormatTechnicalEffect(res.TechnicalEffect),
		Method:          res.Method,
		CFRCodes:        codes,
		Links:           regulation.URLs(codes),
	}
	if res.Method == additive.MethodSearch {
		a.Score = res.Score
		a.Confidence = string(res.Confidence)
	}
	return a
}

// ============================================================================
// Regulation
// ============================================================================

func (s *service) Codes(ctx context.Context, substance string) ([]string, error) {
	assets, err := s.assets()
	if err != nil {
		return nil, err
	}
	codes := assets.Index.Codes(substance)
	prometheus.RecordRegulationLookup(s.metrics, len(codes) > 0)
	return codes, nil
}

func (s *service) Links(ctx context.Context, substance string) ([]regulation.Link, error) {
	codes, err := s.Codes(ctx, substance)
	if err != nil {
		return nil, err
	}
	return regulation.URLs(codes), nil
}

// Suggest lists catalog names spelled like query. limit <= 0 uses the
// configured default.
func (s *service) Suggest(ctx context.Context, query string, limit int) ([]additive.Suggestion, error) {
	assets, err := s.assets()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.SuggestLimit
	}
	return assets.Resolver.Suggest(query, limit, additive.DefaultSuggestSimilarity), nil
}

// ============================================================================
// Helpers
// ============================================================================

// cacheKey is the folded query that resolution depends on.
func cacheKey(q string) string {
	return additive.QueryKey(q)
}

// cached answers from the result cache when one is configured. Misses are
// cached too. Any cache failure falls back to compute.
func (s *service) cached(ctx context.Context, key string, compute func() *additive.MatchResult) *additive.MatchResult {
	if s.cache == nil {
		return compute()
	}

	computed := false
	var dest additive.MatchResult
	err := s.cache.GetOrSet(ctx, key, &dest, s.cfg.CacheTTL, func(context.Context) (interface{}, error) {
		computed = true
		if res := compute(); res != nil {
			return res, nil
		}
		return nil, nil
	})
	prometheus.RecordCacheAccess(s.metrics, cacheName, !computed)

	switch {
	case err == nil:
		return &dest
	case err == redis.ErrCacheMiss:
		return nil
	default:
		s.logger.Warn("Result cache unavailable", logging.String("key", key), logging.Err(err))
		prometheus.RecordError(s.metrics, "cache", string(errors.GetCode(err)))
		return compute()
	}
}

func (s *service) record(res *additive.MatchResult, d time.Duration) {
	if res == nil {
		prometheus.RecordLookup(s.metrics, "", "", 0, d)
		return
	}
	prometheus.RecordLookup(s.metrics, string(res.Method), string(res.Confidence), res.Score, d)
}

func (s *service) publish(ctx context.Context, results []*additive.MatchResult, index *regulation.Index) {
	if len(results) == 0 {
		return
	}
	payloads := make([]kafka.ResolvedPayload, 0, len(results))
	for _, r := range results {
		payloads = append(payloads, kafka.ResolvedPayload{
			Query:      r.OriginalQuery,
			Substance:  r.Substance,
			Method:     string(r.Method),
			Confidence: string(r.Confidence),
			Similarity: r.Score,
			CFRCodes:   index.Codes(r.Substance),
		})
	}
	err := s.events.PublishResolved(ctx, payloads)
	prometheus.RecordEventPublished(s.metrics, kafka.TopicAdditiveResolved, err)
	if err != nil {
		s.logger.Warn("Failed to publish resolution events", logging.Int("count", len(payloads)), logging.Err(err))
	}
}
