package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	module "github.com/huzaifawaqar77/puppeteer-sub000/modules/admission"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/admission"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/audit"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/audit/amqpsink"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/clientip"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/httpserver"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/jwt"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/logger"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pg"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/ratelimiter"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/redis"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/requestid"
)

const (
	closeTimeout  = 15 * time.Second
	statsInterval = time.Minute
)

func newServeCmd(withApp appRunner) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admission HTTP API",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			if migrate {
				if err := a.migrate(ctx); err != nil {
					return err
				}
			}
			if err := a.seedPlans(ctx); err != nil {
				return err
			}
			return a.serve(ctx)
		}),
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")

	return cmd
}

// cleanup runs registered release functions in reverse order.
type cleanup []func(context.Context) error

func (c *cleanup) add(fn func(context.Context) error) { *c = append(*c, fn) }

func (c cleanup) run(ctx context.Context) error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i](ctx))
	}
	return errors.Join(errs...)
}

func (a *app) serve(ctx context.Context) error {
	var (
		closers cleanup
		checks  = []func(context.Context) error{pg.Healthcheck(a.pool)}
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := closers.run(closeCtx); err != nil {
			a.log.Error("shutdown incomplete", logger.Error(err))
		}
	}()

	counter, err := a.counter(ctx, &closers, &checks)
	if err != nil {
		return err
	}

	credOpts := []credential.ResolverOption{
		credential.WithKeyPrefix(a.cfg.APIKeyPrefix),
		credential.WithLogger(a.log),
	}
	if a.cfg.JWTSecret != "" {
		sessions, err := jwt.NewFromString(a.cfg.JWTSecret, jwt.WithIssuer(a.cfg.Name))
		if err != nil {
			return fmt.Errorf("session tokens: %w", err)
		}
		credOpts = append(credOpts, credential.WithSessionVerifier(sessions))
	}
	creds := credential.NewResolver(a.store, credOpts...)
	closers.add(creds.Close)

	ents := entitlement.NewResolver(a.store, a.catalog,
		entitlement.WithCacheTTL(a.cfg.EntitlementCacheTTL, a.cfg.EntitlementCacheSize),
		entitlement.WithLogger(a.log),
	)
	ledger := quota.NewLedger(counter)

	writer, err := a.auditWriter(&closers)
	if err != nil {
		return err
	}
	recorder := audit.NewRecorder(writer, audit.Options{
		BufferSize:   a.cfg.AuditBufferSize,
		BatchSize:    a.cfg.AuditBatchSize,
		BatchTimeout: a.cfg.AuditBatchTimeout,
		Logger:       a.log,
	})
	closers.add(recorder.Close)

	var limiter *ratelimiter.Limiter
	if a.cfg.RateLimitRPS > 0 {
		limiter, err = ratelimiter.New(ratelimiter.Config{
			RPS:     a.cfg.RateLimitRPS,
			Burst:   a.cfg.RateLimitBurst,
			MaxKeys: a.cfg.RateLimitMaxKeys,
			IdleTTL: a.cfg.RateLimitIdleTTL,
		})
		if err != nil {
			return err
		}
	}

	ip := clientip.Resolver{TrustProxy: a.cfg.TrustProxy}
	mod := module.New(module.Options{
		Admitter: admission.NewService(creds, ents, ledger,
			admission.WithPlanSource(a.catalog),
			admission.WithLogger(a.log),
		),
		Credentials:  creds,
		Entitlements: ents,
		Ledger:       ledger,
		Recorder:     recorder,
		Limiter:      limiter,
		ClientIP:     ip,
		Logger:       a.log,
	})

	r := chi.NewRouter()
	r.Use(requestid.Middleware, ip.Middleware, middleware.Recoverer)
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(a.log, a.cfg.ReadinessTimeout, checks...))
	r.Mount("/admission", mod.Handle())

	srv := httpserver.New(a.cfg.HTTP, httpserver.WithLogger(a.log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, r)
	})
	g.Go(func() error {
		reportStats(gctx, a.log, recorder)
		return nil
	})
	return g.Wait()
}

// counter picks the usage counter backend. The Redis client is closed on shutdown.
func (a *app) counter(ctx context.Context, closers *cleanup, checks *[]func(context.Context) error) (quota.Counter, error) {
	if a.cfg.CounterBackend != BackendRedis {
		return a.store, nil
	}
	client, err := redis.Connect(ctx, a.cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	closers.add(func(context.Context) error { return client.Close() })
	*checks = append(*checks, redis.Healthcheck(client))

	return quota.NewRedisCounter(client,
		quota.WithKeyPrefix(a.cfg.Redis.KeyPrefix),
		quota.WithRetention(a.cfg.Redis.CounterRetention),
	), nil
}

// auditWriter persists operation logs to PostgreSQL and, when configured,
// streams them to RabbitMQ as well.
func (a *app) auditWriter(closers *cleanup) (audit.BatchWriter, error) {
	if a.cfg.AuditAMQPURL == "" {
		return a.store, nil
	}
	sink, closeFn, err := amqpsink.Dial(a.cfg.AuditAMQPURL, a.cfg.AuditAMQPExchange)
	if err != nil {
		return nil, err
	}
	closers.add(func(context.Context) error { return closeFn() })
	return audit.FanOut(a.store, sink), nil
}

func reportStats(ctx context.Context, log *slog.Logger, recorder *audit.Recorder) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	var last audit.Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := recorder.Stats()
			if s == last {
				continue
			}
			last = s
			level := slog.LevelInfo
			if s.Dropped > 0 || s.Failed > 0 {
				level = slog.LevelWarn
			}
			log.Log(ctx, level, "operation log stats",
				slog.Uint64("recorded", s.Recorded),
				slog.Uint64("written", s.Written),
				slog.Uint64("dropped", s.Dropped),
				slog.Uint64("failed", s.Failed),
			)
		}
	}
}
