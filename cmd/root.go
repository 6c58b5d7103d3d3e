package main

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agrotalent/matching-service/internal/config"
	"agrotalent/matching-service/internal/db"
	"agrotalent/matching-service/internal/logger"
	"agrotalent/matching-service/internal/match"
	"agrotalent/matching-service/internal/notify"
	"agrotalent/matching-service/internal/scheduler"
	"agrotalent/matching-service/internal/store"
)

var (
	// Used for flags.
	jsonLogs  bool
	debugLogs bool

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "Job/applicant match scoring for the AgroTalent marketplace",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugLogs, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLogs, "json", "j", false, "json format for logging")
}

// deps is everything a command needs, built from the environment.
type deps struct {
	cfg    *config.Config
	logger *zap.Logger
	repo   store.Repository
	inbox  notify.Inbox
	rdb    *redis.Client
	finder *match.Finder
	claims scheduler.Claims

	closers []func()
}

// Close releases connections in reverse order of opening.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	_ = d.logger.Sync()
}

// newDeps loads config and opens the store, Redis and the finder.
func newDeps(ctx context.Context) (*deps, error) {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	lg, err := logger.New(jsonLogs || cfg.Log.JSON, debugLogs || cfg.Log.Debug)
	if err != nil {
		log.Printf("[%s] creating a logger: %v", app, err)
		return nil, err
	}

	d := &deps{cfg: cfg, logger: lg}
	if err := d.openStore(ctx); err != nil {
		d.Close()
		return nil, err
	}
	if err := d.openRedis(ctx); err != nil {
		d.Close()
		return nil, err
	}

	var publisher notify.Publisher
	if d.rdb != nil {
		publisher = notify.NewRedisPublisher(d.rdb)
		d.claims = scheduler.NewRedisClaims(d.rdb)
	} else {
		d.claims = scheduler.NewMemoryClaims()
	}

	dispatcher := notify.NewDispatcher(d.inbox, publisher, logger.Component(lg, "notify"))
	d.finder = match.NewFinder(match.Options{
		Repo:       d.repo,
		Dispatcher: dispatcher,
		Logger:     logger.Component(lg, "match"),
		Policy: &match.Policy{
			ApplicantMinScore: cfg.Match.ApplicantMinScore,
			NotifyMinScore:    cfg.Match.NotifyMinScore,
			NotifyLimit:       cfg.Match.NotifyLimit,
		},
	})
	return d, nil
}

func (d *deps) openStore(ctx context.Context) error {
	switch d.cfg.StoreDriver {
	case config.DriverSQLite:
		// ── SQLite ───────────────────────────────────────────────────────────
		conn, err := db.NewSQLite(ctx, d.cfg.SQLitePath)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, func() { conn.Close() })
		d.repo = store.NewSQLite(conn)
		d.inbox = notify.NewSQLiteInbox(conn)
		d.logger.Info("SQLite opened", zap.String("path", d.cfg.SQLitePath))

	default:
		// ── PostgreSQL ───────────────────────────────────────────────────────
		d.logger.Info("connecting to PostgreSQL")
		pool, err := db.NewPostgresPool(ctx, d.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
		d.repo = store.NewPostgres(pool)
		d.inbox = notify.NewPostgresInbox(pool)
		d.logger.Info("PostgreSQL connected")
	}
	return nil
}

func (d *deps) openRedis(ctx context.Context) error {
	if d.cfg.RedisURL == "" {
		d.logger.Warn("REDIS_URL not set: match events are not published and sweep claims are process-local")
		return nil
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	d.logger.Info("connecting to Redis")
	rdb, err := db.NewRedisClient(ctx, d.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	d.closers = append(d.closers, func() { rdb.Close() })
	d.rdb = rdb
	d.logger.Info("Redis connected")
	return nil
}

// newScheduler builds the sweep scheduler from the loaded config.
func (d *deps) newScheduler() *scheduler.Scheduler {
	return scheduler.New(
		d.repo,
		d.finder,
		d.claims,
		logger.Component(d.logger, "scheduler"),
		d.cfg.Sweep.Interval(),
		d.cfg.Sweep.Lookback(),
	)
}
