package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile_SumsAndRoundsOnce(t *testing.T) {
	rows := []CompResult{
		{AveragedAdjustedPSF: 33.333, Weight: 33.33},
		{AveragedAdjustedPSF: 33.333, Weight: 33.33},
		{AveragedAdjustedPSF: 33.333, Weight: 33.34},
	}
	rec := Reconcile(rows, ReconcileInputs{
		CompType:     BuildingWithLand,
		BuildingSize: 1000,
		Zonings:      []ZoningShare{{SqFt: 1000, WeightSF: 100}},
	})

	// 99.999 rounds to 100.00 once; every downstream figure uses it
	assert.InDelta(t, 100.0, rec.AveragedAdjustedPSF, 1e-9)
	assert.InDelta(t, 100.0, rec.TotalWeight, 1e-9)
	assert.InDelta(t, 100000, rec.ApproachValue, 1e-9)
	assert.InDelta(t, 100, rec.IndicatedPSF, 1e-9)
}

func TestReconcile_LandOnly(t *testing.T) {
	rows := []CompResult{{AveragedAdjustedPSF: 12.5, Weight: 100}}
	rec := Reconcile(rows, ReconcileInputs{
		CompType: LandOnly,
		LandSize: 40000,
	})

	assert.InDelta(t, 12.5*40000, rec.ApproachValue, 1e-9)
	assert.InDelta(t, 12.5, rec.IndicatedPSF, 1e-9)
}

func TestReconcile_BedBasisUsesZoningBeds(t *testing.T) {
	rows := []CompResult{{AveragedAdjustedPSF: 50000, Weight: 100}}
	rec := Reconcile(rows, ReconcileInputs{
		CompType:        BuildingWithLand,
		ComparisonBasis: BasisBed,
		BuildingSize:    6000,
		Zonings: []ZoningShare{
			{SqFt: 3000, WeightSF: 100, Bed: 4, Unit: 2},
			{SqFt: 3000, WeightSF: 100, Bed: 2, Unit: 1},
		},
	})

	assert.InDelta(t, 50000*6, rec.ApproachValue, 1e-9)
}

func TestReconcile_UnitBasisUsesZoningUnits(t *testing.T) {
	rows := []CompResult{{AveragedAdjustedPSF: 120000, Weight: 100}}
	rec := Reconcile(rows, ReconcileInputs{
		CompType:        BuildingWithLand,
		ComparisonBasis: BasisUnit,
		BuildingSize:    6000,
		Zonings: []ZoningShare{
			{SqFt: 6000, WeightSF: 100, Unit: 3},
		},
	})

	assert.InDelta(t, 120000*3, rec.ApproachValue, 1e-9)
}

func TestReconcile_DefaultBasisWeightsZoningArea(t *testing.T) {
	rows := []CompResult{{AveragedAdjustedPSF: 97.75, Weight: 100}}
	rec := Reconcile(rows, ReconcileInputs{
		CompType:     BuildingWithLand,
		BuildingSize: 2000,
		Zonings: []ZoningShare{
			{SqFt: 1500, WeightSF: 100},
			{SqFt: 500, WeightSF: 50},
		},
	})

	// effective area = 1500 + 250 = 1750
	assert.InDelta(t, 97.75*1750, rec.ApproachValue, 1e-9)
}

func TestReconcile_EmptyRowsYieldZeros(t *testing.T) {
	rec := Reconcile(nil, ReconcileInputs{CompType: BuildingWithLand, BuildingSize: 1000})
	assert.Zero(t, rec.AveragedAdjustedPSF)
	assert.Zero(t, rec.TotalWeight)
	assert.Zero(t, rec.ApproachValue)
	assert.Zero(t, rec.IndicatedPSF)
	assert.Zero(t, rec.IncrementalValue)
}

func TestReconcile_ZeroDenominatorsGuarded(t *testing.T) {
	rows := []CompResult{{AveragedAdjustedPSF: 100, Weight: 100}}
	rec := Reconcile(rows, ReconcileInputs{
		CompType:     BuildingWithLand,
		BuildingSize: 0,
		Zonings:      []ZoningShare{{SqFt: 1000, WeightSF: 100}},
	})

	assert.Zero(t, rec.IndicatedPSF)
	assert.False(t, isNaNOrInf(rec.IndicatedPSF))
}

func TestReconcile_IncrementalValueUsesOverride(t *testing.T) {
	rows := []CompResult{{AveragedAdjustedPSF: 100, Weight: 100}}
	in := ReconcileInputs{
		CompType:         BuildingWithLand,
		BuildingSize:     1000,
		Zonings:          []ZoningShare{{SqFt: 1000, WeightSF: 100}},
		EvaluationWeight: 40,
	}

	rec := Reconcile(rows, in)
	assert.InDelta(t, 100000*0.40, rec.IncrementalValue, 1e-9)

	in.WeightOverride = 60
	rec = Reconcile(rows, in)
	assert.InDelta(t, 100000*0.60, rec.IncrementalValue, 1e-9)
}

func TestWeightedMarketValue(t *testing.T) {
	assert.InDelta(t, 350000, WeightedMarketValue([]float64{200000, 150000}, 0), 1e-9)
	// snapped to the nearest 5,000
	assert.InDelta(t, 355000, WeightedMarketValue([]float64{201500, 151200}, 5000), 1e-9)
	assert.Zero(t, WeightedMarketValue(nil, 1000))
}

func TestEffectiveArea(t *testing.T) {
	zonings := []ZoningShare{
		{SqFt: 2000, WeightSF: 100},
		{SqFt: 1000, WeightSF: 25},
	}
	assert.InDelta(t, 2250, EffectiveArea(zonings), 1e-9)
	assert.Zero(t, EffectiveArea(nil))
}
