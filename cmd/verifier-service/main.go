// cmd/verifier-service/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"parcinfo-verifier/internal/alert"
	"parcinfo-verifier/internal/audit"
	"parcinfo-verifier/internal/cache"
	"parcinfo-verifier/internal/common/aws"
	"parcinfo-verifier/internal/common/config"
	"parcinfo-verifier/internal/common/database"
	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/common/observability"
	"parcinfo-verifier/internal/loopguard"
	"parcinfo-verifier/internal/pipeline"
	"parcinfo-verifier/internal/pipeline/groundtruth"
	"parcinfo-verifier/internal/pipeline/score"
	"parcinfo-verifier/internal/server"
	"parcinfo-verifier/internal/typo"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting verifier service",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	jaegerEndpoint := ""
	if cfg.Observability.TracingEnabled {
		jaegerEndpoint = cfg.Observability.JaegerEndpoint
	}
	obs := observability.New(cfg.App.Name, jaegerEndpoint)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry (cache is optional, the pipeline degrades) ---
	var redisClient *database.RedisClient
	if cfg.Cache.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, running without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init Elasticsearch with retry (audit trail is optional) ---
	var esClient *database.ElasticsearchClient
	if cfg.Audit.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Warn("elasticsearch unavailable, running without audit trail", zap.Error(err))
			esClient = nil
		} else {
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Assemble the pipeline ---
	store := groundtruth.NewPostgresStore(pg.GetDB(), log)
	weights := score.FromConfig(cfg.Scoring)
	corrector := typo.NewCorrector()

	opts := []pipeline.Option{
		pipeline.WithNormalizer(corrector.Normalize),
		pipeline.WithObservability(obs),
	}

	var cacheManager *cache.Manager
	if redisClient != nil {
		cacheManager = cache.NewManager(redisClient.GetClient(), cfg.Cache, log)
		opts = append(opts, pipeline.WithCache(cacheManager))
	}

	p := pipeline.New(store, cfg.Pipeline, weights, log, opts...)

	// --- Side channels ---
	var indexer *audit.Indexer
	if esClient != nil {
		indexer = audit.NewIndexer(esClient.Client, cfg.Audit.IndexPrefix, log)
	}

	var notifier *alert.Notifier
	if cfg.Alerts.Enabled {
		var snsClient *aws.SNSClient
		var sesClient *aws.SESClient
		if cfg.Alerts.AWS.SNS.Enabled {
			if snsClient, err = aws.NewSNSClient(ctx, cfg.Alerts.AWS.Region); err != nil {
				zapLog.Warn("sns client init failed, alerts degraded", zap.Error(err))
			}
		}
		if cfg.Alerts.AWS.SES.Enabled {
			if sesClient, err = aws.NewSESClient(ctx, cfg.Alerts.AWS.Region); err != nil {
				zapLog.Warn("ses client init failed, alerts degraded", zap.Error(err))
			}
		}
		notifier = alert.NewNotifier(cfg.Alerts, snsClient, sesClient, log)
	}

	var guard *loopguard.Guard
	if redisClient != nil {
		guard = loopguard.New(cfg.LoopGuard.MaxHistory, cfg.LoopGuard.MaxRepetitions, redisClient.GetClient(), log)
	} else {
		guard = loopguard.New(cfg.LoopGuard.MaxHistory, cfg.LoopGuard.MaxRepetitions, nil, log)
	}

	// --- HTTP server ---
	serverOpts := []server.Option{
		server.WithLoopGuard(guard),
		server.WithHealthCheck("postgres", pg.Ping),
	}
	if cacheManager != nil {
		serverOpts = append(serverOpts, server.WithCache(cacheManager))
		serverOpts = append(serverOpts, server.WithHealthCheck("redis", redisClient.Ping))
	}
	if indexer != nil {
		serverOpts = append(serverOpts, server.WithAuditIndexer(indexer))
		serverOpts = append(serverOpts, server.WithHealthCheck("elasticsearch", esClient.Ping))
	}
	if notifier != nil {
		serverOpts = append(serverOpts, server.WithAlertNotifier(notifier))
	}

	srv := server.New(cfg.Server, p, log, serverOpts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("http server failed", zap.Error(err))
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}

	zapLog.Info("verifier service stopped gracefully")
}
