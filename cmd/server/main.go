package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/logger"
	"github.com/oggyb/campus-match/internal/metrics"
	"github.com/oggyb/campus-match/internal/scheduler"
	"github.com/oggyb/campus-match/internal/server"
	"github.com/oggyb/campus-match/internal/service/discovery"
	"github.com/oggyb/campus-match/internal/service/moderation"
	"github.com/oggyb/campus-match/internal/service/profile"
	"github.com/oggyb/campus-match/internal/service/session"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file; environment variables take precedence")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisCache.Close()

	m := metrics.New()
	appCtx := app.New(cfg, database, redisCache, log, m)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	registrars := []server.Registrar{
		profile.NewRegistrar(appCtx),
		discovery.NewRegistrar(appCtx),
		moderation.NewRegistrar(appCtx),
		session.NewRegistrar(appCtx),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.StartGRPCServer(ctx, cfg, server.Options{Logger: log, Metrics: m}, registrars...)
	})

	if cfg.Metrics.Addr != "" {
		metricsSrv := m.NewServer(cfg.Metrics.Addr)
		g.Go(func() error {
			log.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(log, m)
		if err != nil {
			return err
		}
		if err := sched.RegisterDefaults(cfg, appCtx.Engine); err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(ctx) })
	}

	return g.Wait()
}
