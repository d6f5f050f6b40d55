package comp

import (
	"context"

	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// Repository is the persistence contract for comparable records.
type Repository interface {
	Create(ctx context.Context, c *Comp) error
	GetByID(ctx context.Context, id common.ID) (*Comp, error)
	GetByIDs(ctx context.Context, ids []common.ID) ([]*Comp, error)
	Update(ctx context.Context, c *Comp) error
	Delete(ctx context.Context, id common.ID) error
	List(ctx context.Context, p common.Pagination) ([]*Comp, int64, error)

	// SetCoverPhotoKey records the object key of an uploaded cover photo.
	SetCoverPhotoKey(ctx context.Context, id common.ID, key string) error
}

// SearchQuery is the filter set the comp search index accepts.
type SearchQuery struct {
	Text       string
	SaleStatus SaleStatus
	City       string
	State      string
	MinPrice   float64
	MaxPrice   float64
	Pagination common.Pagination
}

// SearchIndex is the full-text search contract, implemented by the
// OpenSearch adapter. The index is eventually consistent with the
// repository; the worker applies updates from comp events.
type SearchIndex interface {
	Index(ctx context.Context, c *Comp) error
	Remove(ctx context.Context, id common.ID) error
	Search(ctx context.Context, q SearchQuery) ([]*Comp, int64, error)
}
