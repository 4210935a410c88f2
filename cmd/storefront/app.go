package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/storage"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
)

// app holds the wired services. Optional backends fall back to in-process implementations
// when they are not configured.
type app struct {
	db        *gorm.DB
	repo      *repo.GormRepo
	catalog   *service.CatalogService
	carts     *service.CartService
	customers *service.CustomerService
	auth      *service.AuthService

	closers []func() error
}

func openDB(ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return pkgdb.Open(initCtx, cfg.DatabaseURL, pkgdb.DefaultPool())
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{db: db, repo: repo.New(db)}
	a.closers = append(a.closers, func() error { return pkgdb.Close(db) })

	images, err := a.imageStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	engine, err := a.searchEngine(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	c, err := a.cache(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	publisher := a.publisher(cfg)

	a.catalog = &service.CatalogService{
		Repo:   a.repo,
		Images: images,
		Events: publisher,
		Search: engine,
		Cache:  c,
	}
	a.carts = &service.CartService{Repo: a.repo, Events: publisher}
	a.customers = &service.CustomerService{Repo: a.repo}
	a.auth = &service.AuthService{
		Repo:          a.repo,
		Events:        publisher,
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
	return a, nil
}

func (a *app) imageStore(ctx context.Context, cfg config.Config) (storage.ImageStore, error) {
	if cfg.MinioEndpoint == "" {
		logger.Warn("image_store_configured", "backend", "memory", "reason", "MINIO_ENDPOINT is empty")
		return storage.NewMemStore(), nil
	}
	store, err := storage.NewMinIO(ctx, storage.MinIOConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	logger.Info("image_store_configured", "backend", "minio", "bucket", cfg.MinioBucket)
	return store, nil
}

func (a *app) searchEngine(ctx context.Context, cfg config.Config) (search.Engine, error) {
	if cfg.ESURL == "" {
		logger.Info("search_configured", "backend", "database")
		return search.Local{Products: a.repo}, nil
	}
	engine, err := search.NewElastic(ctx, search.ESConfig{
		URL:      cfg.ESURL,
		User:     cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.ESIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch: %w", err)
	}
	logger.Info("search_configured", "backend", "elasticsearch", "index", cfg.ESIndex)
	return engine, nil
}

func (a *app) cache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemory(cfg.CacheTTL), nil
	}
	rdb, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		URL:          cfg.RedisURL,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		DialTimeout:  3 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	a.closers = append(a.closers, rdb.Close)
	return cache.NewRedis(rdb, cfg.CacheTTL), nil
}

func (a *app) publisher(cfg config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("events_configured", "backend", "noop", "reason", "KAFKA_BROKERS is empty")
		return events.Noop{}
	}
	p := events.NewProducer(cfg.KafkaBrokers)
	a.closers = append(a.closers, p.Close)
	return p
}

// Close releases the backends in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
