package appraisal

import (
	"context"

	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// Repository is the persistence contract for appraisals and their zoning
// rows. Implementations live under internal/infrastructure/database.
type Repository interface {
	Create(ctx context.Context, a *Appraisal) error
	GetByID(ctx context.Context, id common.ID) (*Appraisal, error)
	Update(ctx context.Context, a *Appraisal) error
	Delete(ctx context.Context, id common.ID) error
	List(ctx context.Context, p common.Pagination) ([]*Appraisal, int64, error)

	// ReplaceZonings swaps the full zoning set for an appraisal in one
	// transaction; zoning rows have no identity outside their appraisal.
	ReplaceZonings(ctx context.Context, id common.ID, zonings []Zoning) error

	// SetWeightedMarketValue persists the cross-approach reconciliation
	// result without touching the rest of the record.
	SetWeightedMarketValue(ctx context.Context, id common.ID, value float64) error
}
