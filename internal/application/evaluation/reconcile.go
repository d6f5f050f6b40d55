package evaluation

import (
	"context"
	"time"

	"github.com/harkencre/appraisal-platform/internal/domain/appraisal"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/messaging/kafka"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// GetSnapshot serves the wizard's read path: the appraisal and its saved
// approaches, cached until the next mutation invalidates the key.
func (s *service) GetSnapshot(ctx context.Context, evaluationID common.ID) (*Snapshot, error) {
	var snap Snapshot
	loaded := false
	err := s.cache.GetOrSet(ctx, snapshotKey(evaluationID), &snap, s.snapshotTTL,
		func(ctx context.Context) (interface{}, error) {
			loaded = true
			s.metrics.CacheMissesTotal.Inc()
			return s.loadSnapshot(ctx, evaluationID)
		})
	if err != nil {
		return nil, err
	}
	if !loaded {
		s.metrics.CacheHitsTotal.Inc()
	}
	return &snap, nil
}

func (s *service) loadSnapshot(ctx context.Context, evaluationID common.ID) (*Snapshot, error) {
	appr, err := s.appraisals.GetByID(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	approaches, err := s.approaches.ListByEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Appraisal: appr, Approaches: approaches}, nil
}

// ReconcileEvaluation recomputes the cross-approach weighted market value.
// Weight overrides replace the approaches' stored evaluation weights and are
// persisted alongside; the effective weights must not sum over 100.
func (s *service) ReconcileEvaluation(ctx context.Context, input ReconcileInput) (*appraisal.Appraisal, error) {
	appr, err := s.appraisals.GetByID(ctx, input.EvaluationID)
	if err != nil {
		return nil, err
	}

	approaches, err := s.approaches.ListByEvaluation(ctx, input.EvaluationID)
	if err != nil {
		return nil, err
	}

	var weightSum float64
	for _, a := range approaches {
		if w, ok := input.WeightOverrides[a.Type]; ok {
			if w < 0 || w > 100 {
				return nil, errors.Newf(errors.ErrCodeEvaluationWeightBounds,
					"weight for %s approach must be within [0, 100]", a.Type)
			}
			a.EvaluationWeight = w
		}
		weightSum += a.EvaluationWeight
	}
	if weightSum > 100+1e-9 {
		return nil, errors.New(errors.ErrCodeEvaluationWeightBounds,
			"approach weights sum over 100%")
	}

	incrementals := make([]float64, 0, len(approaches))
	for _, a := range approaches {
		if err := s.recompute(ctx, appr, a); err != nil {
			return nil, err
		}
		incrementals = append(incrementals, a.IncrementalValue)
		if _, overridden := input.WeightOverrides[a.Type]; overridden {
			if err := s.approaches.Save(ctx, a); err != nil {
				return nil, err
			}
		}
	}

	appr.ApplyWeightedMarketValue(incrementals)
	if err := s.appraisals.SetWeightedMarketValue(ctx, appr.ID, appr.WeightedMarketValue); err != nil {
		return nil, err
	}
	s.metrics.ReconciliationsTotal.Inc()

	payload := kafka.AppraisalReconciledPayload{
		EvaluationID:        string(appr.ID),
		WeightedMarketValue: appr.WeightedMarketValue,
		ReconciledAt:        time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, kafka.TopicAppraisalReconciled, string(appr.ID), payload); err != nil {
		s.logger.Warn("failed to publish reconciliation event",
			logging.String("evaluation_id", string(appr.ID)),
			logging.Err(err),
		)
	}

	s.invalidateSnapshot(ctx, appr.ID)

	s.logger.Info("evaluation reconciled",
		logging.String("evaluation_id", string(appr.ID)),
		logging.Float64("weighted_market_value", appr.WeightedMarketValue),
	)
	return appr, nil
}
