// tutorkitd serves the order/verification API, the external session
// channel, and the context bus for the companion add-on.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	authgin "github.com/open-rails/tutorkit/adapters/gin"
	"github.com/open-rails/tutorkit/adapters/ginutil"
	"github.com/open-rails/tutorkit/answers"
	"github.com/open-rails/tutorkit/bus"
	"github.com/open-rails/tutorkit/config"
	"github.com/open-rails/tutorkit/entitlements"
	"github.com/open-rails/tutorkit/invoices"
	migrations "github.com/open-rails/tutorkit/migrations/postgres"
	"github.com/open-rails/tutorkit/payments"
	memorylimiter "github.com/open-rails/tutorkit/ratelimit/memory"
	redislimiter "github.com/open-rails/tutorkit/ratelimit/redis"
	boltstore "github.com/open-rails/tutorkit/storage/bbolt"
	"github.com/open-rails/tutorkit/tokens"
)

func main() {
	log := logrus.New()
	if err := run(log); err != nil {
		log.WithError(err).Fatal("tutorkitd exited")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runMigrations(ctx, cfg.DatabaseURL, log); err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := entitlements.NewStore(pool, cfg.DBSchema)

	limiter := newLimiter(cfg, log)

	riverClient, err := newRiverClient(pool, log)
	if err != nil {
		return err
	}
	if err := riverClient.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = riverClient.Stop(context.Background()) }()

	gateway := payments.NewGateway(payments.GatewayConfig{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
	})
	paySvc := payments.NewService(cfg.RazorpayKeySecret, store, invoices.NewEnqueuer(riverClient), log)

	keys, err := tokens.CachedKeySource(ctx, cfg.IdentityJWKSURL)
	if err != nil {
		return err
	}
	verifier := tokens.NewVerifier(cfg.IdentityIssuer, cfg.IdentityAud, keys)

	cache, err := boltstore.Open(cfg.CachePath)
	if err != nil {
		return err
	}
	defer cache.Close()

	coord := bus.NewCoordinator(
		cache,
		answers.NewClient(answers.Config{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL}),
		bus.NewHub(log),
		log,
		bus.WithAllowedOrigins(cfg.AllowedOrigins),
	)

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.SyncSchedule, func() {
		syncCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := coord.Refresh(syncCtx, store); err != nil {
			log.WithError(err).Warn("entitlement refresh failed")
		}
	}); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	authgin.Mount(router, authgin.MountConfig{
		Gateway:       gateway,
		Payments:      paySvc,
		Subscriptions: store,
		Verifier:      verifier,
		Coord:         coord,
		Limiter:       limiter,
		Currency:      cfg.Currency,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("tutorkitd listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// runMigrations applies any pending schema migrations before the pool is
// handed to the stores.
func runMigrations(ctx context.Context, dsn string, log *logrus.Logger) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Debug("database schema up to date")
		return nil
	}
	log.WithField("group", group.String()).Info("applied schema migrations")
	return nil
}

func newLimiter(cfg config.Config, log *logrus.Logger) ginutil.RateLimiter {
	limits := map[string]struct {
		limit  int
		window time.Duration
	}{
		ginutil.RLOrdersCreate:       {limit: 10, window: time.Minute},
		ginutil.RLPaymentsVerify:     {limit: 20, window: time.Minute},
		ginutil.RLSubscriptionCancel: {limit: 10, window: time.Minute},
	}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err == nil {
			rl := make(map[string]redislimiter.Limit, len(limits))
			for k, v := range limits {
				rl[k] = redislimiter.Limit{Limit: v.limit, Window: v.window}
			}
			return redislimiter.New(redis.NewClient(opts), rl)
		}
		log.WithError(err).Warn("bad redis url, falling back to in-memory limiter")
	}
	ml := make(map[string]memorylimiter.Limit, len(limits))
	for k, v := range limits {
		ml[k] = memorylimiter.Limit{Limit: v.limit, Window: v.window}
	}
	return memorylimiter.New(ml)
}

func newRiverClient(pool *pgxpool.Pool, log *logrus.Logger) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, invoices.NewWorker(logMailer{log: log}, log))
	return river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
}

// logMailer stands in until an email provider is wired up; invoices are
// logged rather than silently dropped.
type logMailer struct {
	log *logrus.Logger
}

func (m logMailer) SendInvoice(ctx context.Context, userID, planID, paymentID string) error {
	m.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"plan_id":    planID,
		"payment_id": paymentID,
	}).Info("invoice email (no mailer configured)")
	return nil
}
