package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harkencre/appraisal-platform/internal/domain/comp"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/messaging/kafka"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/prometheus"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

type mockCompRepo struct{ mock.Mock }

func (m *mockCompRepo) Create(ctx context.Context, c *comp.Comp) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCompRepo) GetByID(ctx context.Context, id common.ID) (*comp.Comp, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*comp.Comp), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCompRepo) GetByIDs(ctx context.Context, ids []common.ID) ([]*comp.Comp, error) {
	args := m.Called(ctx, ids)
	if cs := args.Get(0); cs != nil {
		return cs.([]*comp.Comp), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCompRepo) Update(ctx context.Context, c *comp.Comp) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCompRepo) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCompRepo) List(ctx context.Context, p common.Pagination) ([]*comp.Comp, int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]*comp.Comp), args.Get(1).(int64), args.Error(2)
}

func (m *mockCompRepo) SetCoverPhotoKey(ctx context.Context, id common.ID, key string) error {
	return m.Called(ctx, id, key).Error(0)
}

type mockIndex struct{ mock.Mock }

func (m *mockIndex) Index(ctx context.Context, c *comp.Comp) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockIndex) Remove(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockIndex) Search(ctx context.Context, q comp.SearchQuery) ([]*comp.Comp, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]*comp.Comp), args.Get(1).(int64), args.Error(2)
}

type memCache struct {
	deleted []string
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return nil
}

func envelope(t *testing.T, eventType string, payload interface{}) *kafka.EventEnvelope {
	t.Helper()
	env, err := kafka.NewEventEnvelope(eventType, "test", payload)
	require.NoError(t, err)
	return env
}

func newService(repo *mockCompRepo, index *mockIndex, cache *memCache) *Service {
	return NewService(repo, index, cache, prometheus.NewMetrics(), logging.NewNopLogger())
}

func TestHandleCompUpdated_Indexes(t *testing.T) {
	repo := &mockCompRepo{}
	index := &mockIndex{}
	svc := newService(repo, index, &memCache{})

	id := common.NewID()
	c := &comp.Comp{BusinessName: "Dockside Flats"}
	c.ID = id
	repo.On("GetByID", mock.Anything, id).Return(c, nil)
	index.On("Index", mock.Anything, c).Return(nil)

	env := envelope(t, kafka.TopicCompUpdated, kafka.CompUpdatedPayload{CompID: string(id)})
	require.NoError(t, svc.HandleCompUpdated(context.Background(), env))
	index.AssertExpectations(t)
}

func TestHandleCompUpdated_GoneCompRemoved(t *testing.T) {
	repo := &mockCompRepo{}
	index := &mockIndex{}
	svc := newService(repo, index, &memCache{})

	id := common.NewID()
	repo.On("GetByID", mock.Anything, id).
		Return(nil, errors.New(errors.ErrCodeCompNotFound, "comp not found"))
	index.On("Remove", mock.Anything, id).Return(nil)

	env := envelope(t, kafka.TopicCompUpdated, kafka.CompUpdatedPayload{CompID: string(id)})
	require.NoError(t, svc.HandleCompUpdated(context.Background(), env))
	index.AssertExpectations(t)
}

func TestHandleCompDeleted_Removes(t *testing.T) {
	repo := &mockCompRepo{}
	index := &mockIndex{}
	svc := newService(repo, index, &memCache{})

	id := common.NewID()
	index.On("Remove", mock.Anything, id).Return(nil)

	env := envelope(t, kafka.TopicCompDeleted, kafka.CompDeletedPayload{CompID: string(id)})
	require.NoError(t, svc.HandleCompDeleted(context.Background(), env))
	index.AssertExpectations(t)
}

func TestHandleApproachSaved_ReindexesLinkedComps(t *testing.T) {
	repo := &mockCompRepo{}
	index := &mockIndex{}
	cache := &memCache{}
	svc := newService(repo, index, cache)

	evalID := common.NewID()
	c1 := &comp.Comp{BusinessName: "Alder Yard"}
	c1.ID = common.NewID()
	c2 := &comp.Comp{BusinessName: "Birch Row"}
	c2.ID = common.NewID()

	repo.On("GetByIDs", mock.Anything, []common.ID{c1.ID, c2.ID}).
		Return([]*comp.Comp{c1, c2}, nil)
	index.On("Index", mock.Anything, c1).Return(nil)
	index.On("Index", mock.Anything, c2).Return(nil)

	env := envelope(t, kafka.TopicApproachSaved, kafka.ApproachSavedPayload{
		EvaluationID: string(evalID),
		CompIDs:      []string{string(c1.ID), string(c2.ID)},
	})
	require.NoError(t, svc.HandleApproachSaved(context.Background(), env))
	index.AssertExpectations(t)
	assert.Equal(t, []string{"snapshot:" + string(evalID)}, cache.deleted)
}

func TestHandleAppraisalReconciled_EvictsSnapshot(t *testing.T) {
	cache := &memCache{}
	svc := newService(&mockCompRepo{}, &mockIndex{}, cache)

	evalID := common.NewID()
	env := envelope(t, kafka.TopicAppraisalReconciled, kafka.AppraisalReconciledPayload{
		EvaluationID:        string(evalID),
		WeightedMarketValue: 208000,
	})
	require.NoError(t, svc.HandleAppraisalReconciled(context.Background(), env))
	assert.Equal(t, []string{"snapshot:" + string(evalID)}, cache.deleted)
}

func TestHandleCompUpdated_EmptyPayloadRejected(t *testing.T) {
	svc := newService(&mockCompRepo{}, &mockIndex{}, &memCache{})
	env := &kafka.EventEnvelope{EventType: kafka.TopicCompUpdated}
	assert.Error(t, svc.HandleCompUpdated(context.Background(), env))
}
