package lookup

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/additive-lens/internal/intelligence/additive"
	"github.com/turtacn/additive-lens/internal/intelligence/regulation"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// AssetSource opens the named data assets. The object store in
// infrastructure/storage/minio satisfies it, as does FileSource.
type AssetSource interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FileSource reads assets from a local directory.
type FileSource struct {
	Dir string
}

func (f FileSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path := name
	if !filepath.IsAbs(name) && f.Dir != "" {
		path = filepath.Join(f.Dir, name)
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.CodeAssetNotFound, "asset %s not found", path).WithCause(err)
		}
		return nil, errors.Wrapf(err, errors.CodeAssetRead, "open %s", path)
	}
	return file, nil
}

// Assets is the immutable state every lookup reads.
type Assets struct {
	Catalog  *additive.Catalog
	Index    *regulation.Index
	Resolver *additive.Resolver
}

type assetLoader struct {
	source      AssetSource
	catalogName string
	regsName    string
	resolverCfg additive.ResolverConfig
	logger      logging.Logger
	metrics     *prometheus.AppMetrics
}

func (l *assetLoader) load(ctx context.Context) (*Assets, error) {
	start := time.Now()
	catalog, err := l.loadCatalog(ctx)
	if err != nil {
		prometheus.RecordError(l.metrics, "assets", string(errors.GetCode(err)))
		return nil, err
	}
	prometheus.RecordCatalogLoad(l.metrics, catalog.Stats().Loaded, catalog.Stats().Skipped, time.Since(start))
	prometheus.SetAssetReady(l.metrics, "catalog", true)

	start = time.Now()
	index, err := l.loadIndex(ctx)
	if err != nil {
		prometheus.RecordError(l.metrics, "assets", string(errors.GetCode(err)))
		return nil, err
	}
	prometheus.RecordRegulationLoad(l.metrics, index.Len(), time.Since(start))
	prometheus.SetAssetReady(l.metrics, "regulations", true)

	stats := catalog.Stats()
	l.logger.Info("Assets loaded",
		logging.Int("records", stats.Loaded),
		logging.Int("skipped", stats.Skipped),
		logging.Int("dimension", stats.Dimension),
		logging.Int("regulation_entries", index.Len()))
	if stats.Skipped > 0 {
		l.logger.Warn("Catalog records skipped", logging.Int("skipped", stats.Skipped))
	}

	return &Assets{
		Catalog:  catalog,
		Index:    index,
		Resolver: additive.NewResolver(catalog, l.resolverCfg, l.logger),
	}, nil
}

func (l *assetLoader) loadCatalog(ctx context.Context) (*additive.Catalog, error) {
	rc, err := l.source.Open(ctx, l.catalogName)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCatalogLoad, "open catalog")
	}
	defer rc.Close()
	return additive.LoadCatalog(rc)
}

func (l *assetLoader) loadIndex(ctx context.Context) (*regulation.Index, error) {
	rc, err := l.source.Open(ctx, l.regsName)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRegulationLoad, "open regulation csv")
	}
	defer rc.Close()
	return regulation.LoadIndex(rc)
}
