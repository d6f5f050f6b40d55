// Package indexer applies comp and valuation events to the OpenSearch
// index and keeps cached snapshots honest. It runs inside the worker
// process, consuming the topics the API server publishes to.
package indexer

import (
	"context"
	"time"

	"github.com/harkencre/appraisal-platform/internal/domain/comp"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/messaging/kafka"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/prometheus"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// snapshotKeyPrefix mirrors the key scheme of the evaluation service's
// snapshot cache.
const snapshotKeyPrefix = "snapshot:"

// SnapshotInvalidator evicts cached evaluation snapshots.
type SnapshotInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// Service reacts to domain events. Handlers are idempotent: the consumer
// redelivers on retry, and replaying an index write or a cache eviction is
// harmless.
type Service struct {
	comps   comp.Repository
	index   comp.SearchIndex
	cache   SnapshotInvalidator
	metrics *prometheus.Metrics
	logger  logging.Logger
}

// NewService builds the indexer.
func NewService(comps comp.Repository, index comp.SearchIndex, cache SnapshotInvalidator,
	metrics *prometheus.Metrics, log logging.Logger) *Service {
	return &Service{
		comps:   comps,
		index:   index,
		cache:   cache,
		metrics: metrics,
		logger:  log.Named("indexer"),
	}
}

func (s *Service) observe(topic string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if s.metrics != nil {
		s.metrics.EventsConsumedTotal.WithLabelValues(topic, result).Inc()
		s.metrics.IndexSyncDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	}
}

// HandleCompUpdated re-indexes the comp named by the event. A comp deleted
// between publish and consume is removed instead.
func (s *Service) HandleCompUpdated(ctx context.Context, env *kafka.EventEnvelope) (err error) {
	start := time.Now()
	defer func() { s.observe(kafka.TopicCompUpdated, start, err) }()

	var payload kafka.CompUpdatedPayload
	if err = env.DecodePayload(&payload); err != nil {
		return err
	}
	id := common.ID(payload.CompID)

	c, err := s.comps.GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Info("comp gone before index sync, removing",
				logging.String("comp_id", payload.CompID))
			err = s.index.Remove(ctx, id)
			return err
		}
		return err
	}

	if err = s.index.Index(ctx, c); err != nil {
		return err
	}
	s.logger.Debug("comp indexed", logging.String("comp_id", payload.CompID))
	return nil
}

// HandleCompDeleted removes the comp from the index.
func (s *Service) HandleCompDeleted(ctx context.Context, env *kafka.EventEnvelope) (err error) {
	start := time.Now()
	defer func() { s.observe(kafka.TopicCompDeleted, start, err) }()

	var payload kafka.CompDeletedPayload
	if err = env.DecodePayload(&payload); err != nil {
		return err
	}

	if err = s.index.Remove(ctx, common.ID(payload.CompID)); err != nil {
		return err
	}
	s.logger.Debug("comp removed from index", logging.String("comp_id", payload.CompID))
	return nil
}

// HandleApproachSaved refreshes the index entries of every comp linked to
// the saved approach and evicts the evaluation's cached snapshot.
func (s *Service) HandleApproachSaved(ctx context.Context, env *kafka.EventEnvelope) (err error) {
	start := time.Now()
	defer func() { s.observe(kafka.TopicApproachSaved, start, err) }()

	var payload kafka.ApproachSavedPayload
	if err = env.DecodePayload(&payload); err != nil {
		return err
	}

	if len(payload.CompIDs) > 0 {
		ids := make([]common.ID, 0, len(payload.CompIDs))
		for _, raw := range payload.CompIDs {
			ids = append(ids, common.ID(raw))
		}
		var linked []*comp.Comp
		linked, err = s.comps.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, c := range linked {
			if err = s.index.Index(ctx, c); err != nil {
				return err
			}
		}
	}

	err = s.invalidateSnapshot(ctx, payload.EvaluationID)
	return err
}

// HandleAppraisalReconciled evicts the evaluation's cached snapshot so the
// next read sees the new weighted market value.
func (s *Service) HandleAppraisalReconciled(ctx context.Context, env *kafka.EventEnvelope) (err error) {
	start := time.Now()
	defer func() { s.observe(kafka.TopicAppraisalReconciled, start, err) }()

	var payload kafka.AppraisalReconciledPayload
	if err = env.DecodePayload(&payload); err != nil {
		return err
	}

	err = s.invalidateSnapshot(ctx, payload.EvaluationID)
	return err
}

func (s *Service) invalidateSnapshot(ctx context.Context, evaluationID string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, snapshotKeyPrefix+evaluationID); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to evict snapshot")
	}
	return nil
}

// Register wires every handler onto the consumer.
func (s *Service) Register(c *kafka.Consumer) {
	c.Subscribe(kafka.TopicCompUpdated, s.HandleCompUpdated)
	c.Subscribe(kafka.TopicCompDeleted, s.HandleCompDeleted)
	c.Subscribe(kafka.TopicApproachSaved, s.HandleApproachSaved)
	c.Subscribe(kafka.TopicAppraisalReconciled, s.HandleAppraisalReconciled)
}
