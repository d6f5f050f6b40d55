// Package appraisals provides the subject-property application service:
// appraisal CRUD, zoning replacement, submission, and report attachments.
package appraisals

import (
	"context"
	"io"

	"github.com/harkencre/appraisal-platform/internal/domain/appraisal"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/storage/minio"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// Service is the appraisal application service consumed by the HTTP layer.
type Service interface {
	Create(ctx context.Context, a *appraisal.Appraisal) (*appraisal.Appraisal, error)
	Get(ctx context.Context, id common.ID) (*appraisal.Appraisal, error)
	Update(ctx context.Context, a *appraisal.Appraisal) (*appraisal.Appraisal, error)
	Delete(ctx context.Context, id common.ID) error
	List(ctx context.Context, p common.Pagination) ([]*appraisal.Appraisal, int64, error)

	// ReplaceZonings swaps the full zoning set; rows have no identity
	// outside their appraisal.
	ReplaceZonings(ctx context.Context, id common.ID, zonings []appraisal.Zoning) (*appraisal.Appraisal, error)

	// Submit locks the appraisal against further approach saves.
	Submit(ctx context.Context, id common.ID) (*appraisal.Appraisal, error)

	// Attachments.
	UploadAttachment(ctx context.Context, id common.ID, filename string,
		r io.Reader, size int64, contentType string) (string, error)
	ListAttachments(ctx context.Context, id common.ID) ([]minio.ObjectInfo, error)
	AttachmentURL(ctx context.Context, id common.ID, filename string) (string, error)
	DeleteAttachment(ctx context.Context, id common.ID, filename string) error
}

// AttachmentStore is the slice of the MinIO store the service needs.
type AttachmentStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Stat(ctx context.Context, key string) (minio.ObjectInfo, error)
	PresignGet(ctx context.Context, key string) (string, error)
	ListAttachments(ctx context.Context, appraisalID common.ID) ([]minio.ObjectInfo, error)
}

type service struct {
	repo   appraisal.Repository
	store  AttachmentStore
	logger logging.Logger
}

// NewService wires the appraisal service.
func NewService(repo appraisal.Repository, store AttachmentStore, log logging.Logger) Service {
	return &service{
		repo:   repo,
		store:  store,
		logger: log.Named("appraisals"),
	}
}

func (s *service) Create(ctx context.Context, a *appraisal.Appraisal) (*appraisal.Appraisal, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("appraisal created", logging.String("id", string(a.ID)))
	return a, nil
}

func (s *service) Get(ctx context.Context, id common.ID) (*appraisal.Appraisal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, a *appraisal.Appraisal) (*appraisal.Appraisal, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Delete(ctx context.Context, id common.ID) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) List(ctx context.Context, p common.Pagination) ([]*appraisal.Appraisal, int64, error) {
	return s.repo.List(ctx, p)
}

func (s *service) ReplaceZonings(ctx context.Context, id common.ID, zonings []appraisal.Zoning) (*appraisal.Appraisal, error) {
	for _, z := range zonings {
		if err := z.Validate(); err != nil {
			return nil, err
		}
	}
	if err := s.repo.ReplaceZonings(ctx, id, zonings); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Submit(ctx context.Context, id common.ID) (*appraisal.Appraisal, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Submit(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("appraisal submitted", logging.String("id", string(id)))
	return a, nil
}

func (s *service) UploadAttachment(ctx context.Context, id common.ID, filename string,
	r io.Reader, size int64, contentType string) (string, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return "", err
	}
	key := minio.AttachmentKey(id, filename)
	if err := s.store.Upload(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (s *service) ListAttachments(ctx context.Context, id common.ID) ([]minio.ObjectInfo, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListAttachments(ctx, id)
}

func (s *service) AttachmentURL(ctx context.Context, id common.ID, filename string) (string, error) {
	key := minio.AttachmentKey(id, filename)
	if _, err := s.store.Stat(ctx, key); err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, key)
}

func (s *service) DeleteAttachment(ctx context.Context, id common.ID, filename string) error {
	key := minio.AttachmentKey(id, filename)
	if _, err := s.store.Stat(ctx, key); err != nil {
		return err
	}
	return s.store.Delete(ctx, key)
}
