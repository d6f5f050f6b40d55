package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CarriesCodeAndStack(t *testing.T) {
	err := New(CodeCompNotFound, "comp 42 not found")
	assert.Equal(t, CodeCompNotFound, err.Code)
	assert.Contains(t, err.Error(), "CMP_001")
	assert.Contains(t, err.Error(), "comp 42 not found")
	assert.NotEmpty(t, err.Stack)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "query failed"))
}

func TestWrap_PreservesCodeForUnknown(t *testing.T) {
	inner := New(CodeAppraisalNotFound, "appraisal missing")
	wrapped := Wrap(inner, CodeUnknown, "loading subject")
	assert.Equal(t, CodeAppraisalNotFound, wrapped.Code)
	assert.True(t, stderrors.Is(wrapped, wrapped))

	var ae *AppError
	require.True(t, stderrors.As(wrapped, &ae))
}

func TestWrap_ChainTraversal(t *testing.T) {
	inner := stderrors.New("pq: connection refused")
	wrapped := Wrap(inner, ErrCodeDatabaseError, "failed to load comps")
	assert.Equal(t, inner, stderrors.Unwrap(wrapped))
	assert.True(t, IsCode(wrapped, ErrCodeDatabaseError))
	assert.False(t, IsCode(wrapped, CodeNotFound))
}

func TestIsNotFound_DomainCodes(t *testing.T) {
	assert.True(t, IsNotFound(New(CodeNotFound, "x")))
	assert.True(t, IsNotFound(New(CodeAppraisalNotFound, "x")))
	assert.True(t, IsNotFound(New(CodeCompNotFound, "x")))
	assert.True(t, IsNotFound(New(CodeApproachNotFound, "x")))
	assert.True(t, IsNotFound(Wrap(New(CodeCompNotFound, "x"), ErrCodeInternal, "outer")))
	assert.False(t, IsNotFound(New(CodeConflict, "x")))
	assert.False(t, IsNotFound(nil))
}

func TestIsConflict_CoversLinkLimits(t *testing.T) {
	assert.True(t, IsConflict(New(CodeCompLimitExceeded, "5th comp")))
	assert.True(t, IsConflict(New(ErrCodeCompWeightExceeded, "sum > 100")))
	assert.False(t, IsConflict(New(CodeValidation, "x")))
}

func TestWithDetail_DoesNotMutateOriginal(t *testing.T) {
	base := New(CodeInvalidParam, "weight out of range")
	detailed := base.WithDetail("weight=140")
	assert.Empty(t, base.Detail)
	assert.Equal(t, "weight=140", detailed.Detail)
	assert.Contains(t, detailed.Error(), "weight=140")
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeCacheError, GetCode(New(ErrCodeCacheError, "x")))
}
