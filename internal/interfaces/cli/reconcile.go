package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harkencre/appraisal-platform/internal/application/evaluation"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres/repositories"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/redis"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/messaging/kafka"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/prometheus"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	var evaluationID string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute an evaluation's approaches and weighted market value",
		Long:  "Recomputes every approach of the evaluation from its stored adjustment\nrows, reconciles the weighted market value, and publishes the result so\nthe index worker resyncs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := common.ID(evaluationID)
			if err := id.Validate(); err != nil {
				return fmt.Errorf("--evaluation must be a UUID: %w", err)
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			log, err := opts.newLogger()
			if err != nil {
				return err
			}

			conn, err := postgres.NewConnection(cfg.Database, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			redisClient, err := redis.NewClient(cfg.Redis, log)
			if err != nil {
				return err
			}
			defer redisClient.Close()
			cache := redis.NewCache(redisClient, log,
				redis.WithPrefix(cfg.Redis.KeyPrefix),
				redis.WithDefaultTTL(cfg.Redis.DefaultTTL))

			producer, err := kafka.NewProducer(cfg.Kafka, log)
			if err != nil {
				return err
			}
			defer producer.Close()

			svc := evaluation.NewService(
				repositories.NewPostgresAppraisalRepo(conn, log),
				repositories.NewPostgresCompRepo(conn, log),
				repositories.NewPostgresApproachRepo(conn, log),
				producer,
				cache,
				prometheus.NewMetrics(),
				log,
				cfg.Valuation.MaxCompsPerApproach,
				cfg.Valuation.SnapshotTTL,
			)

			appr, err := svc.ReconcileEvaluation(cmd.Context(), evaluation.ReconcileInput{
				EvaluationID: id,
			})
			if err != nil {
				return err
			}

			log.Info("evaluation reconciled",
				logging.String("evaluation_id", evaluationID),
				logging.Float64("weighted_market_value", appr.WeightedMarketValue))
			fmt.Fprintf(cmd.OutOrStdout(), "weighted market value: %.2f\n", appr.WeightedMarketValue)
			return nil
		},
	}

	cmd.Flags().StringVar(&evaluationID, "evaluation", "", "evaluation (appraisal) ID [REQUIRED]")
	_ = cmd.MarkFlagRequired("evaluation")

	return cmd
}
