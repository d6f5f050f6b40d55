// The apiserver binary serves the appraisal platform's REST API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/harkencre/appraisal-platform/internal/application/appraisals"
	"github.com/harkencre/appraisal-platform/internal/application/comps"
	"github.com/harkencre/appraisal-platform/internal/application/evaluation"
	"github.com/harkencre/appraisal-platform/internal/config"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres/repositories"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/redis"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/messaging/kafka"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/prometheus"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/search/opensearch"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/storage/minio"
	httpserver "github.com/harkencre/appraisal-platform/internal/interfaces/http"
	"github.com/harkencre/appraisal-platform/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

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
	logging.SetDefault(logger)

	logger.Info("starting appraisal platform api server",
		logging.Int("port", cfg.Server.Port),
		logging.String("mode", cfg.Server.Mode),
	)

	// Infrastructure.
	conn, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", logging.Err(err))
	}
	defer conn.Close()

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", logging.Err(err))
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL))

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Fatal("failed to build kafka producer", logging.Err(err))
	}
	defer producer.Close()

	osClient, err := opensearch.NewClient(cfg.OpenSearch, logger)
	if err != nil {
		logger.Fatal("failed to connect to opensearch", logging.Err(err))
	}
	compIndex := opensearch.NewCompIndex(osClient, logger)

	store, err := minio.NewStore(cfg.MinIO, logger)
	if err != nil {
		logger.Fatal("failed to connect to object storage", logging.Err(err))
	}

	metrics := prometheus.NewMetrics()

	// Repositories and services.
	appraisalRepo := repositories.NewPostgresAppraisalRepo(conn, logger)
	compRepo := repositories.NewPostgresCompRepo(conn, logger)
	approachRepo := repositories.NewPostgresApproachRepo(conn, logger)

	evaluationSvc := evaluation.NewService(appraisalRepo, compRepo, approachRepo,
		producer, cache, metrics, logger,
		cfg.Valuation.MaxCompsPerApproach, cfg.Valuation.SnapshotTTL)
	compSvc := comps.NewService(compRepo, compIndex, store, producer, logger)
	appraisalSvc := appraisals.NewService(appraisalRepo, store, logger)

	healthHandler := handlers.NewHealthHandler(
		handlers.HealthCheck{Name: "postgres", Ping: conn.HealthCheck},
		handlers.HealthCheck{Name: "redis", Ping: cache.Ping},
		handlers.HealthCheck{Name: "opensearch", Ping: osClient.Ping},
	)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		AppraisalHandler:  handlers.NewAppraisalHandler(appraisalSvc),
		CompHandler:       handlers.NewCompHandler(compSvc),
		EvaluationHandler: handlers.NewEvaluationHandler(evaluationSvc),
		HealthHandler:     healthHandler,
		Logger:            logger,
		Metrics:           metrics,
		Mode:              cfg.Server.Mode,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
	})
	server := httpserver.NewServer(cfg.Server, router, logger)

	// Settings that require a restart dominate the config; log changes so
	// operators know a rolling restart is due.
	if _, err := os.Stat(*configPath); err == nil {
		config.Watch(*configPath, func(_ *config.Config) {
			logger.Info("config file changed on disk; restart to apply")
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return server.Stop(context.Background())
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}
