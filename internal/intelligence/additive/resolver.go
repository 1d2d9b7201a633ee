package additive

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
)

// ResolverConfig tunes the search path and the batch pool.
type ResolverConfig struct {
	Threshold float32 `mapstructure:"threshold" yaml:"threshold"`
	Workers   int     `mapstructure:"workers" yaml:"workers"`
}

// DefaultResolverConfig returns the production threshold and a small pool.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Threshold: DefaultThreshold,
		Workers:   4,
	}
}

// Resolver maps free-text additive names onto catalog records. It holds no
// mutable state after construction and is safe for concurrent use.
type Resolver struct {
	catalog *Catalog
	encoder Encoder
	cfg     ResolverConfig
	logger  logging.Logger
}

// NewResolver builds a resolver over catalog. A nil catalog behaves like an
// empty one: only flavor phrases resolve.
func NewResolver(catalog *Catalog, cfg ResolverConfig, logger logging.Logger) *Resolver {
	if catalog == nil {
		catalog = EmptyCatalog()
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Resolver{
		catalog: catalog,
		encoder: NewEncoder(catalog.Dimension()),
		cfg:     cfg,
		logger:  logger.Named("additive"),
	}
}

// Catalog returns the catalog the resolver scans.
func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Encoder returns the encoder sized to the catalog dimension.
func (r *Resolver) Encoder() Encoder { return r.encoder }

// Threshold returns the acceptance threshold in use.
func (r *Resolver) Threshold() float32 { return r.cfg.Threshold }

// Search resolves query by similarity. Flavor phrases are answered from the
// fixed table; color shorthand is replaced by its canonical name, first by
// exact phrase and then by containment; the remaining term is scored against
// every record and the best one is accepted if it clears the threshold.
func (r *Resolver) Search(query string) (*MatchResult, bool) {
	cleaned := cleanQuery(query)
	lower := strings.ToLower(cleaned)

	if k, ok := lookupFlavor(lower); ok {
		return &MatchResult{
			OriginalQuery:   cleaned,
			Substance:       k.Substance,
			OtherNames:      k.OtherNames,
			TechnicalEffect: k.TechnicalEffect,
			Method:          MethodFlavor,
			Confidence:      ConfidenceHigh,
		}, true
	}
	if lower == "" || !r.catalog.Ready() {
		return nil, false
	}

	term := cleaned
	if canonical, ok := lookupColor(lower); ok {
		term = canonical
	} else if canonical, ok := matchColorPartial(lower); ok {
		term = canonical
	}

	best, found := r.Best(term)
	res, ok := Decide(term, best, found, r.cfg.Threshold)
	if !ok {
		if found {
			r.logger.Debug("best candidate below threshold",
				logging.String("query", term),
				logging.String("candidate", best.Record.Substance),
				logging.Float32("score", best.Score))
		}
		return nil, false
	}
	return res, true
}

// Resolve tries the direct path and falls back to Search.
func (r *Resolver) Resolve(query string) (*MatchResult, bool) {
	if res, ok := r.ResolveDirect(query); ok {
		return res, true
	}
	return r.Search(query)
}

// ResolveMany resolves every query independently on a bounded pool. Results
// keep the input order and misses are left out. The only error is ctx's.
func (r *Resolver) ResolveMany(ctx context.Context, queries []string) ([]*MatchResult, error) {
	slots := make([]*MatchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, q := range queries {
		i, q := i, q
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if res, ok := r.Resolve(q); ok {
				slots[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*MatchResult, 0, len(slots))
	for _, res := range slots {
		if res != nil {
			out = append(out, res)
		}
	}
	return out, nil
}
