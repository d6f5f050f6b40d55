package evaluation

import (
	"context"
	"time"

	"github.com/harkencre/appraisal-platform/internal/domain/appraisal"
	"github.com/harkencre/appraisal-platform/internal/domain/approach"
	"github.com/harkencre/appraisal-platform/internal/domain/comp"
	"github.com/harkencre/appraisal-platform/internal/domain/valuation"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/messaging/kafka"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// loadWritableAppraisal fetches the appraisal and rejects mutations once it
// has been submitted.
func (s *service) loadWritableAppraisal(ctx context.Context, id common.ID) (*appraisal.Appraisal, error) {
	appr, err := s.appraisals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appr.Submitted {
		return nil, errors.New(errors.ErrCodeAppraisalSubmitted,
			"appraisal is submitted; approaches are read-only")
	}
	return appr, nil
}

// recompute runs every comp row through the valuation engine and applies the
// approach-level rollup. Stored figures on the rows are overwritten; they are
// a snapshot of this computation, never an input to it.
func (s *service) recompute(ctx context.Context, appr *appraisal.Appraisal, a *approach.Approach) error {
	start := time.Now()

	byID := make(map[common.ID]*comp.Comp, len(a.CompRows))
	if len(a.CompRows) > 0 {
		ids := make([]common.ID, 0, len(a.CompRows))
		for _, row := range a.CompRows {
			ids = append(ids, row.CompID)
		}
		comps, err := s.comps.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, c := range comps {
			byID[c.ID] = c
		}
	}

	subject := appr.Subject()
	for i := range a.CompRows {
		row := &a.CompRows[i]
		c, ok := byID[row.CompID]
		if !ok {
			return errors.Newf(errors.ErrCodeCompNotFound, "comp %s not found", row.CompID)
		}
		total := valuation.Aggregate(row.Adjustments)
		res := valuation.Calculate(subject, c.Inputs(), total, row.Weight)

		row.TotalAdjustment = res.TotalAdjustment
		row.AdjustedPSF = res.AdjustedPSF
		row.AveragedAdjustedPSF = res.AveragedAdjustedPSF
		row.BlendedAdjustedPSF = res.BlendedAdjustedPSF
	}

	rec := valuation.Reconcile(a.Results(), valuation.ReconcileInputs{
		CompType:         appr.CompType,
		ComparisonBasis:  appr.ComparisonBasis,
		LandSize:         appr.LandSize,
		BuildingSize:     appr.BuildingSize,
		Zonings:          appr.ZoningShares(),
		EvaluationWeight: a.EvaluationWeight,
	})
	a.ApplyReconciliation(rec)

	s.metrics.ValuationsTotal.WithLabelValues(string(a.Type)).Add(float64(len(a.CompRows)))
	s.metrics.ValuationDuration.WithLabelValues(string(a.Type)).Observe(time.Since(start).Seconds())
	return nil
}

// saveAndAnnounce persists the approach, publishes the saved event, and
// drops the cached snapshot. Publish failures are logged, not returned: the
// save has already committed and the worker resyncs on the next event.
func (s *service) saveAndAnnounce(ctx context.Context, a *approach.Approach) error {
	if err := s.approaches.Save(ctx, a); err != nil {
		return err
	}

	ev := approach.NewSavedEvent(a)
	compIDs := make([]string, 0, len(ev.CompIDs))
	for _, id := range ev.CompIDs {
		compIDs = append(compIDs, string(id))
	}
	payload := kafka.ApproachSavedPayload{
		EvaluationID: string(ev.EvaluationID),
		ApproachID:   string(ev.ApproachID),
		ApproachType: string(ev.ApproachType),
		CompIDs:      compIDs,
		SavedAt:      ev.OccurredAt(),
	}
	if err := s.publisher.Publish(ctx, kafka.TopicApproachSaved, string(a.EvaluationID), payload); err != nil {
		s.logger.Warn("failed to publish approach saved event",
			logging.String("approach_id", string(a.ID)),
			logging.Err(err),
		)
	}

	s.invalidateSnapshot(ctx, a.EvaluationID)
	return nil
}

func (s *service) SaveApproach(ctx context.Context, input SaveApproachInput) (*approach.Approach, error) {
	if input.EvaluationWeight < 0 || input.EvaluationWeight > 100 {
		return nil, errors.New(errors.ErrCodeEvaluationWeightBounds,
			"evaluation_weight must be within [0, 100]")
	}

	appr, err := s.loadWritableAppraisal(ctx, input.EvaluationID)
	if err != nil {
		return nil, err
	}

	a := &approach.Approach{
		EvaluationID:     input.EvaluationID,
		Type:             input.Type,
		Note:             input.Note,
		EvaluationWeight: input.EvaluationWeight,
	}
	a.CompRows = make([]approach.CompRow, 0, len(input.Rows))
	for i, row := range input.Rows {
		a.CompRows = append(a.CompRows, approach.CompRow{
			CompID:                 row.CompID,
			Order:                  i + 1,
			Weight:                 row.Weight,
			OverallComparability:   row.OverallComparability,
			AdjustmentNote:         row.AdjustmentNote,
			Adjustments:            row.Adjustments,
			QualitativeAdjustments: row.QualitativeAdjustments,
		})
	}

	if err := a.Validate(s.maxComps); err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, appr, a); err != nil {
		return nil, err
	}
	if err := s.saveAndAnnounce(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("approach saved",
		logging.String("evaluation_id", string(a.EvaluationID)),
		logging.String("type", string(a.Type)),
		logging.Int("comps", len(a.CompRows)),
	)
	return a, nil
}

func (s *service) LinkComps(ctx context.Context, input LinkCompsInput) (*approach.Approach, error) {
	if len(input.CompIDs) == 0 {
		return nil, errors.New(errors.CodeValidation, "comp_ids is required")
	}

	appr, err := s.loadWritableAppraisal(ctx, input.EvaluationID)
	if err != nil {
		return nil, err
	}

	a, err := s.approaches.GetByEvaluationAndType(ctx, input.EvaluationID, input.Type)
	if err != nil {
		if !errors.IsCode(err, errors.ErrCodeApproachNotFound) {
			return nil, err
		}
		a = &approach.Approach{EvaluationID: input.EvaluationID, Type: input.Type}
	}

	// Existence check up front so a bad ID cannot half-link a batch.
	if _, err := s.comps.GetByIDs(ctx, input.CompIDs); err != nil {
		return nil, err
	}

	for _, id := range input.CompIDs {
		if a.HasComp(id) {
			return nil, errors.Newf(errors.ErrCodeCompAlreadyLinked,
				"comp %s is already linked to this approach", id)
		}
		a.CompRows = append(a.CompRows, approach.CompRow{
			CompID: id,
			Order:  len(a.CompRows) + 1,
		})
	}
	a.RebalanceWeights()

	if err := a.Validate(s.maxComps); err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, appr, a); err != nil {
		return nil, err
	}
	if err := s.saveAndAnnounce(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) UnlinkComp(ctx context.Context, input UnlinkCompInput) (*approach.Approach, error) {
	appr, err := s.loadWritableAppraisal(ctx, input.EvaluationID)
	if err != nil {
		return nil, err
	}

	a, err := s.approaches.GetByEvaluationAndType(ctx, input.EvaluationID, input.Type)
	if err != nil {
		return nil, err
	}
	if !a.RemoveComp(input.CompID) {
		return nil, errors.Newf(errors.ErrCodeCompNotFound,
			"comp %s is not linked to this approach", input.CompID)
	}
	a.RebalanceWeights()

	if err := s.recompute(ctx, appr, a); err != nil {
		return nil, err
	}
	if err := s.saveAndAnnounce(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) SetAdjustment(ctx context.Context, input SetAdjustmentInput) (*approach.Approach, error) {
	appr, err := s.loadWritableAppraisal(ctx, input.EvaluationID)
	if err != nil {
		return nil, err
	}

	a, err := s.approaches.GetByEvaluationAndType(ctx, input.EvaluationID, input.Type)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range a.CompRows {
		if a.CompRows[i].CompID == input.CompID {
			a.CompRows[i].Adjustments = valuation.ApplyValue(
				a.CompRows[i].Adjustments, input.Index, input.Value)
			found = true
			break
		}
	}
	if !found {
		return nil, errors.Newf(errors.ErrCodeCompNotFound,
			"comp %s is not linked to this approach", input.CompID)
	}

	if err := s.recompute(ctx, appr, a); err != nil {
		return nil, err
	}
	if err := s.saveAndAnnounce(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
