package loader

import (
	"fmt"

	"venue-finder/internal/common/config"
	"venue-finder/internal/common/database"
	apphttp "venue-finder/internal/common/http"
	"venue-finder/internal/common/logger"
)

// Open builds the source named by cfg.Datasource.Kind, wrapped in the redis
// record cache when a cache TTL is set. closeFn releases any connections.
func Open(cfg *config.Config, log logger.Logger) (src Source, closeFn func(), err error) {
	var closers []func() error
	closeFn = func() {
		for _, c := range closers {
			_ = c()
		}
	}
	ds := cfg.Datasource

	switch ds.Kind {
	case config.DatasourceStatic:
		src = &StaticSource{}
	case config.DatasourceSheet:
		src = NewSheetSource(apphttp.NewClient(config.GetDuration(ds.Timeout)), ds.SheetURL)
	case config.DatasourceFile:
		src = NewFileSource(ds.FilePath)
	case config.DatasourcePostgres:
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, closeFn, err
		}
		closers = append(closers, pg.Close)
		src = NewPostgresSource(pg, ds.Table, ds.MaxRows)
	case config.DatasourceElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, closeFn, err
		}
		src = NewElasticsearchSource(es, ds.Index, ds.MaxRows)
	default:
		return nil, closeFn, fmt.Errorf("unknown datasource kind %q", ds.Kind)
	}

	if ds.CacheTTL > 0 {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			closeFn()
			return nil, func() {}, err
		}
		closers = append(closers, rdb.Close)
		src = NewCachedSource(src, rdb, config.GetDuration(ds.CacheTTL), log)
	}

	return src, closeFn, nil
}
