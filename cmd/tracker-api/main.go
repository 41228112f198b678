package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit"
	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/application"
	"github.com/nuran-nahadi/CSE-3216-SDP-Project/middleware/ratelimit/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := newLogger(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	os.Exit(runMain(cfg, logger))
}

// runMain devolve o exit code depois do Sync do logger (Fatal pularia o Sync).
func runMain(cfg config, logger *zap.Logger) int {
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("tracker-api stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rules, err := loadRules(cfg.RateRulesFile)
	if err != nil {
		return err
	}

	limiter := infra.NewSlidingWindow(infra.WithCleanupEvery(cfg.RateCleanupEvery))

	prom, err := infra.NewPrometheusStats(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("prometheus stats: %w", err)
	}
	stats := infra.MultiStats{prom}

	if cfg.RateStatsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateStatsRedisAddr,
			Password: cfg.RateStatsRedisPassword,
			DB:       cfg.RateStatsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			return fmt.Errorf("redis stats ping: %w", err)
		}

		stats = append(stats, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.RateStatsPrefix),
			infra.WithStatsTTL(cfg.RateStatsTTL),
			infra.WithStatsBucket(cfg.RateStatsBucket),
			infra.WithStatsTrackKeys(cfg.RateStatsTrackKeys),
		))
	}

	deps := guardDeps{
		rules:    rules,
		limiter:  limiter,
		stats:    stats,
		registry: application.NewRegistry(),
		log:      logger,
	}

	a, err := newAPI(newMemStore(), newTokens(cfg.JWTSecret, cfg.TokenTTL), deps)
	if err != nil {
		return err
	}

	handler, err := newRouter(a, routerOptions{
		keyFn: ratelimit.DefaultKeyFunc(cfg.RateKeyHeader, cfg.TrustXFF),
		concurrency: ratelimit.ConcurrencyOptions{
			Max:            cfg.ConcurrencyMax,
			AcquireTimeout: cfg.ConcurrencyTimeout,
			Logger:         logger,
		},
		addHeaders: cfg.AddHeaders,
		deps:       deps,
	})
	if err != nil {
		return err
	}

	logOperations(logger, deps.registry)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	obs := newObservabilityServer(cfg.ObservabilityAddr)

	g, gctx := errgroup.WithContext(ctx)
	limiter.StartJanitor(gctx)

	g.Go(func() error {
		logger.Info("tracker-api listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("observability server listening", zap.String("addr", cfg.ObservabilityAddr))
		if err := obs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("observability server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), obs.Shutdown(shutdownCtx))
	})

	return g.Wait()
}

func newObservabilityServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func logOperations(logger *zap.Logger, reg *application.Registry) {
	for _, op := range reg.Operations() {
		rule := op.Rule()
		logger.Info("rate limited operation",
			zap.String("operation", op.Name()),
			zap.Int("limit", rule.Limit),
			zap.Duration("window", rule.Window),
			zap.String("identifier", string(rule.Identifier)),
		)
	}
}
