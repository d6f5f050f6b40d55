package evaluation

import (
	"context"

	"github.com/harkencre/appraisal-platform/internal/domain/valuation"
)

// PreviewComp aggregates the submitted adjustment lines (with the optional
// one-value edit applied) and runs the calculator for a single comp. Nothing
// is persisted; lenient parsing means partial input still yields a result.
func (s *service) PreviewComp(ctx context.Context, input PreviewInput) (*PreviewResult, error) {
	appr, err := s.appraisals.GetByID(ctx, input.EvaluationID)
	if err != nil {
		return nil, err
	}
	c, err := s.comps.GetByID(ctx, input.CompID)
	if err != nil {
		return nil, err
	}

	lines := input.Adjustments
	var total float64
	if input.ChangeIndex != nil {
		total, lines = valuation.AggregateWith(lines, *input.ChangeIndex, input.ChangeValue)
	} else {
		total = valuation.Aggregate(lines)
	}

	res := valuation.Calculate(appr.Subject(), c.Inputs(), total, input.Weight)
	return &PreviewResult{
		TotalAdjustment: total,
		Result:          res,
		Adjustments:     lines,
	}, nil
}
