// Package service assembles a composite Generator and its collaborators from
// configuration. It is shared by the job service and the command line tool.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/radar-composite/internal/adapter/objectstore"
	"github.com/couchcryptid/radar-composite/internal/adapter/postgres"
	redisadapter "github.com/couchcryptid/radar-composite/internal/adapter/redis"
	"github.com/couchcryptid/radar-composite/internal/compositing"
	"github.com/couchcryptid/radar-composite/internal/config"
	"github.com/couchcryptid/radar-composite/internal/filter"
	"github.com/couchcryptid/radar-composite/internal/geo"
	"github.com/couchcryptid/radar-composite/internal/gra"
	"github.com/couchcryptid/radar-composite/internal/loader"
	"github.com/couchcryptid/radar-composite/internal/observability"
	"github.com/couchcryptid/radar-composite/internal/profile"
	"github.com/couchcryptid/radar-composite/internal/quality"
	"github.com/couchcryptid/radar-composite/internal/storage"
)

// Components are the assembled parts. Close releases database and cache
// connections.
type Components struct {
	Generator *compositing.Generator
	Profiles  *profile.Set
	Areas     *geo.Registry
	Detectors *quality.Registry

	closers []func() error
}

// Build wires a Generator from cfg. Optional collaborators (object store,
// coefficient database and cache, cloud types, profiles) are only created
// when configured.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*Components, error) {
	c := &Components{}

	areas, err := loadAreas(cfg.AreaRegistryFile)
	if err != nil {
		return nil, err
	}
	c.Areas = areas

	if cfg.ProfileFile != "" {
		c.Profiles, err = profile.Load(cfg.ProfileFile)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded composite profiles", "file", cfg.ProfileFile, "profiles", c.Profiles.Names())
	}

	var blobs storage.BlobFetcher
	if cfg.ObjectStoreURL != "" {
		client := objectstore.NewClient(cfg.ObjectStoreURL, cfg.ObjectStoreTimeout, metrics, logger)
		blobs = objectstore.NewCachedFetcher(client, cfg.ObjectStoreCacheSize, metrics)
		logger.Info("object store enabled", "url", cfg.ObjectStoreURL, "cache_size", cfg.ObjectStoreCacheSize)
	}
	resolver := storage.NewResolver(storage.FileStore{}, blobs, logger)

	c.Detectors = quality.NewRegistry()
	if err := quality.RegisterBuiltins(c.Detectors); err != nil {
		return nil, err
	}

	coefficients, err := c.coefficientStore(ctx, cfg, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	var cloudTypes filter.CloudTypeProvider
	if cfg.CloudTypeDir != "" {
		cloudTypes = filter.DirCloudTypes{Dir: cfg.CloudTypeDir}
	}

	c.Generator = compositing.New(compositing.Deps{
		Fetcher:      loader.New(resolver, logger, metrics),
		Quality:      quality.NewPipeline(c.Detectors, logger),
		Areas:        areas,
		Coefficients: coefficients,
		CloudTypes:   cloudTypes,
		CenterID:     cfg.CenterID,
		GRALookback:  cfg.GRALookback,
		Logger:       logger,
		Metrics:      metrics,
	})
	return c, nil
}

// DefaultOptions are the service defaults with the configured dump directory.
func DefaultOptions(cfg *config.Config) compositing.Options {
	opts := compositing.DefaultOptions()
	opts.DumpDir = cfg.DumpPath
	return opts
}

// Close releases connections in reverse order of creation.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func loadAreas(path string) (*geo.Registry, error) {
	if path == "" {
		return geo.NewRegistry()
	}
	r, err := geo.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load area registry: %w", err)
	}
	return r, nil
}

func (c *Components) coefficientStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (gra.CoefficientStore, error) {
	if cfg.GRADatabaseURL == "" {
		logger.Info("gra coefficient database disabled, climatology only")
		return nil, nil
	}
	db, err := postgres.Connect(ctx, cfg.GRADatabaseURL)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, db.Close)

	pg := postgres.NewCoefficientStore(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	if cfg.RedisAddr == "" {
		return pg, nil
	}

	client, err := redisadapter.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, client.Close)
	logger.Info("gra coefficient cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.GRACacheTTL)
	return redisadapter.NewCachedCoefficientStore(pg, client, cfg.GRACacheTTL, logger), nil
}
