package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/passport-office-api/internal/repository"
	"github.com/noah-isme/passport-office-api/internal/service"
	"github.com/noah-isme/passport-office-api/pkg/cache"
	"github.com/noah-isme/passport-office-api/pkg/config"
	"github.com/noah-isme/passport-office-api/pkg/database"
)

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *service.MetricsService
	persons *service.PersonService
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logr, metrics: service.NewMetricsService()}

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, person cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(client)
			a.closers = append(a.closers, cacheRepo.Close)
			cacheSvc = service.NewCacheService(cacheRepo, a.metrics, cfg.Cache.TTL, logr, true)
		}
	}

	svcCfg := service.PersonServiceConfig{CacheTTL: cfg.Cache.TTL, ExportTitle: cfg.Export.Title}
	validate := validator.New()

	switch cfg.Database.Driver {
	case config.DriverMemory:
		repo := repository.NewMemoryPersonRepository()
		a.persons = service.NewPersonService(repo, cacheSvc, a.metrics, validate, logr, svcCfg)
	default:
		db, err := database.Open(cfg.Database)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
		}
		a.closers = append(a.closers, db.Close)

		dialect, err := repository.DialectFor(db.DriverName())
		if err != nil {
			a.close()
			return nil, err
		}
		if err := repository.EnsureSchema(ctx, db, dialect); err != nil {
			a.close()
			return nil, err
		}
		repo := repository.NewPersonRepository(db, dialect)
		a.persons = service.NewPersonService(repo, cacheSvc, a.metrics, validate, logr, svcCfg)
	}

	logr.Info("record store ready", zap.String("driver", cfg.Database.Driver), zap.Bool("cache", cacheSvc.Enabled()))
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close dependency", zap.Error(err))
		}
	}
	a.closers = nil
}
