package valuation

import "math"

// ZoningShare is one zoning / unit-mix row on the subject property. WeightSF
// is the percentage of SqFt that participates in the effective area.
type ZoningShare struct {
	SqFt     float64
	WeightSF float64
	Bed      float64
	Unit     float64
}

// EffectiveArea returns the weighted square footage across zonings,
// Σ(sq_ft × weight_sf / 100).
func EffectiveArea(zonings []ZoningShare) float64 {
	var total float64
	for _, z := range zonings {
		total += z.SqFt * z.WeightSF / 100
	}
	return total
}

// totalBeds and totalUnits sum the unit-mix columns.
func totalBeds(zonings []ZoningShare) float64 {
	var t float64
	for _, z := range zonings {
		t += z.Bed
	}
	return t
}

func totalUnits(zonings []ZoningShare) float64 {
	var t float64
	for _, z := range zonings {
		t += z.Unit
	}
	return t
}

// ReconcileInputs carries the subject-side data one approach reconciliation
// needs beyond the per-comp results.
type ReconcileInputs struct {
	CompType        CompType
	ComparisonBasis ComparisonBasis
	LandSize        float64
	BuildingSize    float64
	Zonings         []ZoningShare

	// EvaluationWeight is the approach's stored share of the final value.
	// WeightOverride, when non-zero, wins over the stored weight.
	EvaluationWeight float64
	WeightOverride   float64
}

// Reconciliation is the approach-level rollup persisted with the approach.
type Reconciliation struct {
	// AveragedAdjustedPSF is Σ per-comp averaged values, rounded to cents.
	AveragedAdjustedPSF float64
	// TotalWeight is Σ per-comp weights; the caller rejects totals over 100.
	TotalWeight float64
	// ApproachValue is the indicated value for the basis in effect.
	ApproachValue float64
	// IndicatedPSF is ApproachValue per square foot (or per land unit for
	// land-only subjects), 0 when the divisor is 0.
	IndicatedPSF float64
	// IncrementalValue is ApproachValue × effective evaluation weight / 100.
	IncrementalValue float64
}

// Reconcile rolls per-comp results up into the approach totals. The summed
// averaged unit price is rounded to 2 decimals once and that rounded figure
// feeds every basis, so the persisted value always matches the displayed
// one regardless of basis.
func Reconcile(rows []CompResult, in ReconcileInputs) Reconciliation {
	var sumAveraged, sumWeight float64
	for _, r := range rows {
		sumAveraged += r.AveragedAdjustedPSF
		sumWeight += r.Weight
	}
	avg := Round2(sumAveraged)

	area := EffectiveArea(in.Zonings)
	areaValue := area * avg
	bedValue := totalBeds(in.Zonings) * avg
	unitValue := totalUnits(in.Zonings) * avg
	landValue := avg * in.LandSize

	var value, indicatedPSF float64
	switch {
	case in.CompType == LandOnly:
		value = landValue
		indicatedPSF = safeDiv(landValue, in.LandSize)
	case in.ComparisonBasis == BasisBed:
		value = bedValue
		indicatedPSF = safeDiv(areaValue, in.BuildingSize)
	case in.ComparisonBasis == BasisUnit:
		value = unitValue
		indicatedPSF = safeDiv(areaValue, in.BuildingSize)
	default:
		value = areaValue
		indicatedPSF = safeDiv(areaValue, in.BuildingSize)
	}

	weight := in.EvaluationWeight
	if in.WeightOverride != 0 {
		weight = in.WeightOverride
	}

	return Reconciliation{
		AveragedAdjustedPSF: avg,
		TotalWeight:         sumWeight,
		ApproachValue:       value,
		IndicatedPSF:        indicatedPSF,
		IncrementalValue:    value * weight / 100,
	}
}

// WeightedMarketValue combines the approaches' incremental values into the
// evaluation-level market value, snapped to the appraisal's rounding
// increment when one is set.
func WeightedMarketValue(incrementals []float64, rounding float64) float64 {
	var total float64
	for _, v := range incrementals {
		total += v
	}
	if rounding > 0 {
		return roundToIncrement(total, rounding)
	}
	return total
}

func roundToIncrement(x, inc float64) float64 {
	return math.Round(x/inc) * inc
}
