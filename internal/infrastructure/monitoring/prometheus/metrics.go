package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec

	// gRPC Layer
	GRPCRequestsTotal   CounterVec
	GRPCRequestDuration HistogramVec

	// Lookup Layer
	LookupsTotal      CounterVec
	LookupDuration    HistogramVec
	MatchScore        HistogramVec
	BatchSize         HistogramVec
	RegulationLookups CounterVec

	// Assets
	CatalogRecords    GaugeVec
	RegulationEntries GaugeVec
	AssetLoadDuration HistogramVec
	AssetState        GaugeVec

	// Infrastructure Layer
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	EventsPublished  CounterVec
	ErrorsTotal      CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets   = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultLookupDurationBuckets = []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25}
	DefaultScoreBuckets          = []float64{0, .1, .2, .244, .3, .5, .7, 1, 1.25, 1.5}
	DefaultBatchSizeBuckets      = []float64{1, 2, 5, 10, 25, 50, 100, 250}
	DefaultLoadDurationBuckets   = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")

	// gRPC
	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "service", "method", "code")
	m.GRPCRequestDuration = collector.RegisterHistogram("grpc_request_duration_seconds", "gRPC request duration", DefaultHTTPDurationBuckets, "service", "method")

	// Lookup
	m.LookupsTotal = collector.RegisterCounter("lookups_total", "Resolved queries by method; method=none for misses", "method")
	m.LookupDuration = collector.RegisterHistogram("lookup_duration_seconds", "Time to resolve one query", DefaultLookupDurationBuckets, "operation")
	m.MatchScore = collector.RegisterHistogram("match_score", "Blended score of accepted search matches", DefaultScoreBuckets, "confidence")
	m.BatchSize = collector.RegisterHistogram("batch_size", "Queries per batch request", DefaultBatchSizeBuckets, "operation")
	m.RegulationLookups = collector.RegisterCounter("regulation_lookups_total", "Regulation code lookups", "result")

	// Assets
	m.CatalogRecords = collector.RegisterGauge("catalog_records", "Catalog records by load outcome", "outcome")
	m.RegulationEntries = collector.RegisterGauge("regulation_entries", "Substances in the regulation index")
	m.AssetLoadDuration = collector.RegisterHistogram("asset_load_duration_seconds", "Asset load duration", DefaultLoadDurationBuckets, "asset")
	m.AssetState = collector.RegisterGauge("asset_ready", "Asset readiness (1=ready, 0=not ready)", "asset")

	// Infrastructure
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.EventsPublished = collector.RegisterCounter("events_published_total", "Published events", "topic", "status")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "code")

	return m
}

// NewNoopAppMetrics returns metrics that record nothing.
func NewNoopAppMetrics() *AppMetrics {
	return NewAppMetrics(NewNoopCollector())
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordGRPCRequest(metrics *AppMetrics, service, method, code string, duration time.Duration) {
	metrics.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
	metrics.GRPCRequestDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordLookup counts one resolved or missed query. method is empty for a
// miss; score and confidence are only observed for search matches.
func RecordLookup(metrics *AppMetrics, method, confidence string, score float32, duration time.Duration) {
	label := method
	if label == "" {
		label = "none"
	}
	metrics.LookupsTotal.WithLabelValues(label).Inc()
	metrics.LookupDuration.WithLabelValues("resolve").Observe(duration.Seconds())
	if method == "search" {
		metrics.MatchScore.WithLabelValues(confidence).Observe(float64(score))
	}
}

func RecordBatch(metrics *AppMetrics, operation string, size int, duration time.Duration) {
	metrics.BatchSize.WithLabelValues(operation).Observe(float64(size))
	metrics.LookupDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordRegulationLookup(metrics *AppMetrics, found bool) {
	result := "found"
	if !found {
		result = "empty"
	}
	metrics.RegulationLookups.WithLabelValues(result).Inc()
}

func RecordCatalogLoad(metrics *AppMetrics, loaded, skipped int, duration time.Duration) {
	metrics.CatalogRecords.WithLabelValues("loaded").Set(float64(loaded))
	metrics.CatalogRecords.WithLabelValues("skipped").Set(float64(skipped))
	metrics.AssetLoadDuration.WithLabelValues("catalog").Observe(duration.Seconds())
}

func RecordRegulationLoad(metrics *AppMetrics, entries int, duration time.Duration) {
	metrics.RegulationEntries.WithLabelValues().Set(float64(entries))
	metrics.AssetLoadDuration.WithLabelValues("regulations").Observe(duration.Seconds())
}

func SetAssetReady(metrics *AppMetrics, asset string, ready bool) {
	v := 0.0
	if ready {
		v = 1
	}
	metrics.AssetState.WithLabelValues(asset).Set(v)
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordEventPublished(metrics *AppMetrics, topic string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.EventsPublished.WithLabelValues(topic, status).Inc()
}

func RecordError(metrics *AppMetrics, component, code string) {
	metrics.ErrorsTotal.WithLabelValues(component, code).Inc()
}
