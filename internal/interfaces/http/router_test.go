package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harkencre/appraisal-platform/internal/application/evaluation"
	"github.com/harkencre/appraisal-platform/internal/domain/appraisal"
	"github.com/harkencre/appraisal-platform/internal/domain/approach"
	"github.com/harkencre/appraisal-platform/internal/domain/comp"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/prometheus"
	"github.com/harkencre/appraisal-platform/internal/interfaces/http/handlers"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

type mockEvaluationService struct{ mock.Mock }

func (m *mockEvaluationService) GetSnapshot(ctx context.Context, id common.ID) (*evaluation.Snapshot, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*evaluation.Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEvaluationService) SaveApproach(ctx context.Context, input evaluation.SaveApproachInput) (*approach.Approach, error) {
	args := m.Called(ctx, input)
	if a := args.Get(0); a != nil {
		return a.(*approach.Approach), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEvaluationService) PreviewComp(ctx context.Context, input evaluation.PreviewInput) (*evaluation.PreviewResult, error) {
	args := m.Called(ctx, input)
	if r := args.Get(0); r != nil {
		return r.(*evaluation.PreviewResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEvaluationService) LinkComps(ctx context.Context, input evaluation.LinkCompsInput) (*approach.Approach, error) {
	args := m.Called(ctx, input)
	if a := args.Get(0); a != nil {
		return a.(*approach.Approach), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEvaluationService) UnlinkComp(ctx context.Context, input evaluation.UnlinkCompInput) (*approach.Approach, error) {
	args := m.Called(ctx, input)
	if a := args.Get(0); a != nil {
		return a.(*approach.Approach), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEvaluationService) SetAdjustment(ctx context.Context, input evaluation.SetAdjustmentInput) (*approach.Approach, error) {
	args := m.Called(ctx, input)
	if a := args.Get(0); a != nil {
		return a.(*approach.Approach), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEvaluationService) ReconcileEvaluation(ctx context.Context, input evaluation.ReconcileInput) (*appraisal.Appraisal, error) {
	args := m.Called(ctx, input)
	if a := args.Get(0); a != nil {
		return a.(*appraisal.Appraisal), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCompService struct{ mock.Mock }

func (m *mockCompService) Create(ctx context.Context, c *comp.Comp) (*comp.Comp, error) {
	args := m.Called(ctx, c)
	if out := args.Get(0); out != nil {
		return out.(*comp.Comp), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCompService) Get(ctx context.Context, id common.ID) (*comp.Comp, error) {
	args := m.Called(ctx, id)
	if out := args.Get(0); out != nil {
		return out.(*comp.Comp), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCompService) Update(ctx context.Context, c *comp.Comp) (*comp.Comp, error) {
	args := m.Called(ctx, c)
	if out := args.Get(0); out != nil {
		return out.(*comp.Comp), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCompService) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockCompService) List(ctx context.Context, p common.Pagination) ([]*comp.Comp, int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]*comp.Comp), args.Get(1).(int64), args.Error(2)
}

func (m *mockCompService) Search(ctx context.Context, q comp.SearchQuery) ([]*comp.Comp, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]*comp.Comp), args.Get(1).(int64), args.Error(2)
}

func (m *mockCompService) UploadCoverPhoto(ctx context.Context, id common.ID, filename string,
	r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, id, filename, r, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockCompService) CoverPhotoURL(ctx context.Context, id common.ID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

type testRig struct {
	evalSvc *mockEvaluationService
	compSvc *mockCompService
	handler http.Handler
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	rig := &testRig{
		evalSvc: &mockEvaluationService{},
		compSvc: &mockCompService{},
	}
	rig.handler = NewRouter(RouterConfig{
		CompHandler:       handlers.NewCompHandler(rig.compSvc),
		EvaluationHandler: handlers.NewEvaluationHandler(rig.evalSvc),
		HealthHandler:     handlers.NewHealthHandler(),
		Logger:            logging.NewNopLogger(),
		Metrics:           prometheus.NewMetrics(),
		Mode:              "test",
	})
	return rig
}

func (rig *testRig) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	rig.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rig := newTestRig(t)
	rec := rig.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"up"`)
}

func TestMetricsEndpoint(t *testing.T) {
	rig := newTestRig(t)
	rec := rig.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestIDEchoed(t *testing.T) {
	rig := newTestRig(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	rig.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestSnapshot_OK(t *testing.T) {
	rig := newTestRig(t)
	id := common.NewID()

	appr := &appraisal.Appraisal{BusinessName: "Harken Plaza"}
	appr.ID = id
	rig.evalSvc.On("GetSnapshot", mock.Anything, id).
		Return(&evaluation.Snapshot{Appraisal: appr}, nil)

	rec := rig.do(t, http.MethodGet, "/api/v1/evaluations/"+string(id), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Appraisal struct {
				BusinessName string `json:"business_name"`
			} `json:"appraisal"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Harken Plaza", resp.Data.Appraisal.BusinessName)
}

func TestSnapshot_MalformedID(t *testing.T) {
	rig := newTestRig(t)
	rec := rig.do(t, http.MethodGet, "/api/v1/evaluations/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshot_NotFoundMapped(t *testing.T) {
	rig := newTestRig(t)
	id := common.NewID()
	rig.evalSvc.On("GetSnapshot", mock.Anything, id).
		Return(nil, errors.New(errors.ErrCodeAppraisalNotFound, "appraisal not found"))

	rec := rig.do(t, http.MethodGet, "/api/v1/evaluations/"+string(id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "APR_001")
}

func TestSaveApproach_InvalidTypeRejected(t *testing.T) {
	rig := newTestRig(t)
	id := common.NewID()

	rec := rig.do(t, http.MethodPut, "/api/v1/evaluations/"+string(id)+"/approaches/income",
		map[string]interface{}{"rows": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VAL_002")
	rig.evalSvc.AssertNotCalled(t, "SaveApproach", mock.Anything, mock.Anything)
}

func TestSaveApproach_ConflictMapped(t *testing.T) {
	rig := newTestRig(t)
	id := common.NewID()

	rig.evalSvc.On("SaveApproach", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeAppraisalSubmitted, "appraisal is submitted"))

	rec := rig.do(t, http.MethodPut, "/api/v1/evaluations/"+string(id)+"/approaches/sales",
		map[string]interface{}{"evaluation_weight": 50})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "APR_002")
}

func TestLinkComps_PassesParsedInput(t *testing.T) {
	rig := newTestRig(t)
	id := common.NewID()
	compID := common.NewID()

	saved := &approach.Approach{EvaluationID: id, Type: approach.TypeSales}
	rig.evalSvc.On("LinkComps", mock.Anything, evaluation.LinkCompsInput{
		EvaluationID: id,
		Type:         approach.TypeSales,
		CompIDs:      []common.ID{compID},
	}).Return(saved, nil)

	rec := rig.do(t, http.MethodPost, "/api/v1/evaluations/"+string(id)+"/approaches/sales/comps",
		map[string]interface{}{"comp_ids": []string{string(compID)}})
	assert.Equal(t, http.StatusOK, rec.Code)
	rig.evalSvc.AssertExpectations(t)
}

func TestCompSearch_ParsesFilters(t *testing.T) {
	rig := newTestRig(t)

	rig.compSvc.On("Search", mock.Anything, comp.SearchQuery{
		Text:       "dockside",
		SaleStatus: comp.SaleClosed,
		State:      "WA",
		MinPrice:   500000,
		Pagination: common.Pagination{Page: 2, PageSize: 10},
	}).Return([]*comp.Comp{}, int64(0), nil)

	rec := rig.do(t, http.MethodGet,
		"/api/v1/comps/search?q=dockside&sale_status=Closed&state=WA&min_price=500000&page=2&page_size=10", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rig.compSvc.AssertExpectations(t)
}

func TestCompSearch_BadPrice(t *testing.T) {
	rig := newTestRig(t)
	rec := rig.do(t, http.MethodGet, "/api/v1/comps/search?min_price=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInternalErrorMasked(t *testing.T) {
	rig := newTestRig(t)
	id := common.NewID()

	rig.evalSvc.On("GetSnapshot", mock.Anything, id).
		Return(nil, errors.New(errors.ErrCodeDatabaseError, "connection refused to 10.0.0.8"))

	rec := rig.do(t, http.MethodGet, "/api/v1/evaluations/"+string(id), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.8")
	assert.Contains(t, rec.Body.String(), "internal server error")
}
