package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/config"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/logger"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pg"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pgstore"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/requestid"
)

// app holds what every command needs. Commands open further resources themselves.
type app struct {
	cfg     Config
	log     *slog.Logger
	pool    *pgxpool.Pool
	store   *pgstore.Store
	catalog *entitlement.Catalog
}

func (c *Config) logLevel() (slog.Level, error) {
	return logger.ParseLevel(c.LogLevel)
}

func newLogger(cfg Config) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		level, _ := cfg.logLevel()
		opts = append(opts, logger.WithLevel(level))
	}
	return logger.New(opts...)
}

func loadCatalog(path string) (*entitlement.Catalog, error) {
	if path == "" {
		return entitlement.DefaultCatalog()
	}
	return entitlement.LoadCatalogFile(path)
}

// wireApp loads configuration and connects to PostgreSQL.
func wireApp(ctx context.Context, envFiles ...string) (*app, error) {
	cfg, err := config.Load[Config](envFiles...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)
	logger.SetAsDefault(log)

	catalog, err := loadCatalog(cfg.PlansFile)
	if err != nil {
		return nil, fmt.Errorf("load plan catalog: %w", err)
	}

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &app{
		cfg:     cfg,
		log:     log,
		pool:    pool,
		store:   pgstore.New(pool),
		catalog: catalog,
	}, nil
}

func (a *app) migrate(ctx context.Context) error {
	if err := pg.Migrate(ctx, a.pool, pgstore.Migrations(), a.cfg.PG, a.log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// seedPlans writes the catalog to the plans table so subscriptions can reference it.
func (a *app) seedPlans(ctx context.Context) error {
	if err := a.store.UpsertPlans(ctx, a.catalog.Plans()...); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	return nil
}

func (a *app) Close() {
	a.pool.Close()
}
