package appraisals

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harkencre/appraisal-platform/internal/domain/appraisal"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/storage/minio"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, a *appraisal.Appraisal) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id common.ID) (*appraisal.Appraisal, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*appraisal.Appraisal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, a *appraisal.Appraisal) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) List(ctx context.Context, p common.Pagination) ([]*appraisal.Appraisal, int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]*appraisal.Appraisal), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepo) ReplaceZonings(ctx context.Context, id common.ID, zonings []appraisal.Zoning) error {
	return m.Called(ctx, id, zonings).Error(0)
}

func (m *mockRepo) SetWeightedMarketValue(ctx context.Context, id common.ID, value float64) error {
	return m.Called(ctx, id, value).Error(0)
}

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) Stat(_ context.Context, key string) (minio.ObjectInfo, error) {
	data, ok := f.objects[key]
	if !ok {
		return minio.ObjectInfo{}, errors.New(errors.ErrCodeAttachmentNotFound, "attachment not found")
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (f *fakeStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://minio.local/attachments/" + key + "?signed=1", nil
}

func (f *fakeStore) ListAttachments(_ context.Context, appraisalID common.ID) ([]minio.ObjectInfo, error) {
	prefix := "appraisals/" + string(appraisalID) + "/attachments/"
	var out []minio.ObjectInfo
	for key, data := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, minio.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (Service, *mockRepo, *fakeStore) {
	t.Helper()
	repo := &mockRepo{}
	store := newFakeStore()
	return NewService(repo, store, logging.NewNopLogger()), repo, store
}

func TestCreate_ValidatesSettings(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Create(context.Background(), &appraisal.Appraisal{
		CompAdjustmentMode: "Euro",
	})
	assert.True(t, errors.IsValidation(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_LocksAppraisal(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := common.NewID()

	a := &appraisal.Appraisal{}
	a.ID = id
	repo.On("GetByID", ctx, id).Return(a, nil)
	repo.On("Update", ctx, a).Return(nil)

	out, err := svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.True(t, out.Submitted)

	// Second submit is a conflict.
	_, err = svc.Submit(ctx, id)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAppraisalSubmitted))
}

func TestReplaceZonings_RejectsBadWeight(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.ReplaceZonings(context.Background(), common.NewID(), []appraisal.Zoning{
		{Zone: "C-2", SqFt: 1000, WeightSF: 140},
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeZoningInvalid))
	repo.AssertNotCalled(t, "ReplaceZonings", mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachmentLifecycle(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()
	id := common.NewID()

	a := &appraisal.Appraisal{}
	a.ID = id
	repo.On("GetByID", ctx, id).Return(a, nil)

	key, err := svc.UploadAttachment(ctx, id, "deed.pdf", bytes.NewReader([]byte("pdf")), 3, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "appraisals/"+string(id)+"/attachments/deed.pdf", key)
	assert.Contains(t, store.objects, key)

	list, err := svc.ListAttachments(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 1)

	u, err := svc.AttachmentURL(ctx, id, "deed.pdf")
	require.NoError(t, err)
	assert.Contains(t, u, "deed.pdf")

	require.NoError(t, svc.DeleteAttachment(ctx, id, "deed.pdf"))
	_, err = svc.AttachmentURL(ctx, id, "deed.pdf")
	assert.True(t, errors.IsCode(err, errors.ErrCodeAttachmentNotFound))
}

func TestUploadAttachment_UnknownAppraisal(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := common.NewID()

	repo.On("GetByID", ctx, id).
		Return(nil, errors.New(errors.ErrCodeAppraisalNotFound, "appraisal not found"))

	_, err := svc.UploadAttachment(ctx, id, "deed.pdf", bytes.NewReader(nil), 0, "application/pdf")
	assert.True(t, errors.IsNotFound(err))
}
