package approach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harkencre/appraisal-platform/internal/domain/valuation"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

func salesApproach(nComps int) *Approach {
	a := &Approach{
		EvaluationID: common.NewID(),
		Type:         TypeSales,
	}
	for i := 0; i < nComps; i++ {
		a.CompRows = append(a.CompRows, CompRow{
			CompID: common.NewID(),
			Order:  i + 1,
		})
	}
	a.RebalanceWeights()
	return a
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, salesApproach(3).Validate(4))
}

func TestValidate_UnknownType(t *testing.T) {
	a := salesApproach(1)
	a.Type = "income"
	err := a.Validate(4)
	assert.True(t, errors.IsCode(err, errors.ErrCodeApproachTypeInvalid))
}

func TestValidate_CompCap(t *testing.T) {
	a := salesApproach(5)
	err := a.Validate(4)
	assert.True(t, errors.IsConflict(err))
	assert.Equal(t, errors.CodeCompLimitExceeded, errors.GetCode(err))

	// cap of 0 disables the check
	assert.NoError(t, a.Validate(0))
}

func TestValidate_WeightCeiling(t *testing.T) {
	a := salesApproach(2)
	a.CompRows[0].Weight = 60
	a.CompRows[1].Weight = 50
	err := a.Validate(4)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCompWeightExceeded))
}

func TestValidate_RowInvariants(t *testing.T) {
	a := salesApproach(1)
	a.CompRows[0].CompID = ""
	assert.True(t, errors.IsValidation(a.Validate(4)))

	a = salesApproach(1)
	a.CompRows[0].OverallComparability = "better-ish"
	assert.True(t, errors.IsValidation(a.Validate(4)))
}

func TestRebalanceWeights_ThreeComps(t *testing.T) {
	a := salesApproach(3)
	assert.InDelta(t, 33.33, a.CompRows[0].Weight, 1e-9)
	assert.InDelta(t, 33.33, a.CompRows[1].Weight, 1e-9)
	assert.InDelta(t, 33.34, a.CompRows[2].Weight, 1e-9)
}

func TestRemoveComp_RenumbersAndReports(t *testing.T) {
	a := salesApproach(3)
	target := a.CompRows[1].CompID

	require.True(t, a.RemoveComp(target))
	require.Len(t, a.CompRows, 2)
	assert.Equal(t, 1, a.CompRows[0].Order)
	assert.Equal(t, 2, a.CompRows[1].Order)
	assert.False(t, a.HasComp(target))

	assert.False(t, a.RemoveComp("not-linked"))
}

func TestResultsAndApplyReconciliation(t *testing.T) {
	a := salesApproach(2)
	a.CompRows[0].AveragedAdjustedPSF = 55
	a.CompRows[1].AveragedAdjustedPSF = 42.75

	rec := valuation.Reconcile(a.Results(), valuation.ReconcileInputs{
		CompType:     valuation.BuildingWithLand,
		BuildingSize: 2000,
		Zonings:      []valuation.ZoningShare{{SqFt: 2000, WeightSF: 100}},
	})
	a.ApplyReconciliation(rec)

	assert.InDelta(t, 97.75, a.AveragedAdjustedPSF, 1e-9)
	assert.InDelta(t, 97.75*2000, a.ApproachValue, 1e-9)
	assert.InDelta(t, 100, a.Weight, 1e-9)
}

func TestNewSavedEvent(t *testing.T) {
	a := salesApproach(2)
	a.ID = common.NewID()

	ev := NewSavedEvent(a)

	assert.NotEmpty(t, ev.EventID())
	assert.Equal(t, string(a.ID), ev.AggregateID())
	assert.Equal(t, TypeSales, ev.ApproachType)
	assert.Len(t, ev.CompIDs, 2)
}
