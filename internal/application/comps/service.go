// Package comps provides the comparable-record application service: CRUD
// over the repository, full-text search through the OpenSearch index, and
// cover-photo storage in MinIO. Every mutation publishes an event so the
// index worker can resync.
package comps

import (
	"context"
	"io"
	"time"

	"github.com/harkencre/appraisal-platform/internal/domain/comp"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/messaging/kafka"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/storage/minio"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

var errNoCoverPhoto = errors.New(errors.ErrCodeAttachmentNotFound, "comp has no cover photo")

// Service is the comp application service consumed by the HTTP layer.
type Service interface {
	Create(ctx context.Context, c *comp.Comp) (*comp.Comp, error)
	Get(ctx context.Context, id common.ID) (*comp.Comp, error)
	Update(ctx context.Context, c *comp.Comp) (*comp.Comp, error)
	Delete(ctx context.Context, id common.ID) error

	// List returns a page of comps in display order: pending first by
	// business name, then closed by most recent sale.
	List(ctx context.Context, p common.Pagination) ([]*comp.Comp, int64, error)

	// Search queries the OpenSearch index. Results reflect the last synced
	// state, not necessarily the latest write.
	Search(ctx context.Context, q comp.SearchQuery) ([]*comp.Comp, int64, error)

	// UploadCoverPhoto stores the photo bytes and records the object key on
	// the comp. It returns the key.
	UploadCoverPhoto(ctx context.Context, id common.ID, filename string,
		r io.Reader, size int64, contentType string) (string, error)

	// CoverPhotoURL returns a presigned download URL for the comp's cover
	// photo.
	CoverPhotoURL(ctx context.Context, id common.ID) (string, error)
}

// EventPublisher is the slice of the Kafka producer the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// ObjectStore is the slice of the MinIO store the service needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

type service struct {
	repo      comp.Repository
	index     comp.SearchIndex
	store     ObjectStore
	publisher EventPublisher
	logger    logging.Logger
}

// NewService wires the comp service.
func NewService(
	repo comp.Repository,
	index comp.SearchIndex,
	store ObjectStore,
	publisher EventPublisher,
	log logging.Logger,
) Service {
	return &service{
		repo:      repo,
		index:     index,
		store:     store,
		publisher: publisher,
		logger:    log.Named("comps"),
	}
}

// announce publishes a comp event; failures are logged, not returned, since
// the repository write has already committed.
func (s *service) announce(ctx context.Context, topic string, id common.ID, payload interface{}) {
	if err := s.publisher.Publish(ctx, topic, string(id), payload); err != nil {
		s.logger.Warn("failed to publish comp event",
			logging.String("topic", topic),
			logging.String("comp_id", string(id)),
			logging.Err(err),
		)
	}
}

func (s *service) Create(ctx context.Context, c *comp.Comp) (*comp.Comp, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.announce(ctx, kafka.TopicCompUpdated, c.ID, kafka.CompUpdatedPayload{
		CompID:    string(c.ID),
		UpdatedAt: time.Now().UTC(),
	})
	return c, nil
}

func (s *service) Get(ctx context.Context, id common.ID) (*comp.Comp, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, c *comp.Comp) (*comp.Comp, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.announce(ctx, kafka.TopicCompUpdated, c.ID, kafka.CompUpdatedPayload{
		CompID:    string(c.ID),
		UpdatedAt: time.Now().UTC(),
	})
	return c, nil
}

func (s *service) Delete(ctx context.Context, id common.ID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if c.CoverPhotoKey != "" {
		if err := s.store.Delete(ctx, c.CoverPhotoKey); err != nil {
			s.logger.Warn("failed to delete cover photo",
				logging.String("comp_id", string(id)),
				logging.Err(err),
			)
		}
	}
	s.announce(ctx, kafka.TopicCompDeleted, id, kafka.CompDeletedPayload{
		CompID:    string(id),
		DeletedAt: time.Now().UTC(),
	})
	return nil
}

func (s *service) List(ctx context.Context, p common.Pagination) ([]*comp.Comp, int64, error) {
	comps, total, err := s.repo.List(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	return comp.SortForDisplay(comps), total, nil
}

func (s *service) Search(ctx context.Context, q comp.SearchQuery) ([]*comp.Comp, int64, error) {
	return s.index.Search(ctx, q)
}

func (s *service) UploadCoverPhoto(ctx context.Context, id common.ID, filename string,
	r io.Reader, size int64, contentType string) (string, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	key := minio.CoverPhotoKey(id, filename)
	if err := s.store.Upload(ctx, key, r, size, contentType); err != nil {
		return "", err
	}

	// A re-upload with a different extension leaves the old object behind;
	// remove it once the new one is stored.
	if c.CoverPhotoKey != "" && c.CoverPhotoKey != key {
		if err := s.store.Delete(ctx, c.CoverPhotoKey); err != nil {
			s.logger.Warn("failed to delete previous cover photo",
				logging.String("comp_id", string(id)),
				logging.Err(err),
			)
		}
	}

	if err := s.repo.SetCoverPhotoKey(ctx, id, key); err != nil {
		return "", err
	}
	s.announce(ctx, kafka.TopicCompUpdated, id, kafka.CompUpdatedPayload{
		CompID:    string(id),
		UpdatedAt: time.Now().UTC(),
	})
	return key, nil
}

func (s *service) CoverPhotoURL(ctx context.Context, id common.ID) (string, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if c.CoverPhotoKey == "" {
		return "", errNoCoverPhoto
	}
	return s.store.PresignGet(ctx, c.CoverPhotoKey)
}
