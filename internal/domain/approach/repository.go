package approach

import (
	"context"

	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// Repository is the persistence contract for approaches and their comp rows.
// Save is an upsert keyed by (evaluation_id, type): the wizard saves the
// whole approach on every change, rows included.
type Repository interface {
	Save(ctx context.Context, a *Approach) error
	GetByID(ctx context.Context, id common.ID) (*Approach, error)
	GetByEvaluationAndType(ctx context.Context, evaluationID common.ID, t Type) (*Approach, error)
	ListByEvaluation(ctx context.Context, evaluationID common.ID) ([]*Approach, error)
	Delete(ctx context.Context, id common.ID) error
}
