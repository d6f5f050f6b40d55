// The worker binary consumes domain events and keeps the OpenSearch comp
// index and cached snapshots in sync with PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/harkencre/appraisal-platform/internal/application/indexer"
	"github.com/harkencre/appraisal-platform/internal/config"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres/repositories"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/redis"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/messaging/kafka"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/prometheus"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/search/opensearch"
)

const (
	defaultConfigPath = "configs/config.yaml"
	metricsAddr       = ":9091"
	ensureIndexWait   = 30 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("worker")
	logging.SetDefault(logger)

	logger.Info("starting index worker",
		logging.Any("topics", kafka.Topics()),
		logging.String("group_id", cfg.Kafka.GroupID),
	)

	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", logging.Err(err))
	}
	defer conn.Close()
	compRepo := repositories.NewPostgresCompRepo(conn, logger)

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", logging.Err(err))
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL))

	osClient, err := opensearch.NewClient(cfg.OpenSearch, logger)
	if err != nil {
		logger.Fatal("failed to connect to opensearch", logging.Err(err))
	}
	compIndex := opensearch.NewCompIndex(osClient, logger)

	ensureCtx, cancel := context.WithTimeout(context.Background(), ensureIndexWait)
	if err := compIndex.EnsureIndex(ensureCtx); err != nil {
		cancel()
		logger.Fatal("failed to ensure comp index", logging.Err(err))
	}
	cancel()

	metrics := prometheus.NewMetrics()
	svc := indexer.NewService(compRepo, compIndex, cache, metrics, logger)

	consumer, err := kafka.NewConsumer(cfg.Kafka, cfg.Worker, logger)
	if err != nil {
		logger.Fatal("failed to build kafka consumer", logging.Err(err))
	}
	svc.Register(consumer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("failed to start consumer", logging.Err(err))
	}

	// Expose /metrics so the worker is scrapable alongside the API server.
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", logging.Err(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if err := consumer.Stop(); err != nil {
		logger.Error("consumer stop error", logging.Err(err))
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", logging.Err(err))
	}

	logger.Info("worker stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
