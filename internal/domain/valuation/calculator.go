package valuation

import "math"

// SquareFeetPerAcre converts between the two land dimensions.
const SquareFeetPerAcre = 43560.0

// AdjustmentMode selects how an aggregated adjustment total is applied to a
// base unit price.
type AdjustmentMode string

const (
	// ModeDollar treats the total as an absolute amount added to the base.
	ModeDollar AdjustmentMode = "Dollar"
	// ModePercent treats the total as a percentage of the base.
	ModePercent AdjustmentMode = "Percent"
)

// AnalysisType is the unit the analysis is quoted in.
type AnalysisType string

const (
	AnalysisSF   AnalysisType = "$/SF"
	AnalysisAcre AnalysisType = "$/Acre"
)

// LandDimension is the unit a comparable's land size is recorded in.
type LandDimension string

const (
	LandSF   LandDimension = "SF"
	LandAcre LandDimension = "ACRE"
)

// CompType distinguishes improved property from bare land.
type CompType string

const (
	BuildingWithLand CompType = "building_with_land"
	LandOnly         CompType = "land_only"
)

// ComparisonBasis selects the unit price the adjusted value is quoted per.
type ComparisonBasis string

const (
	BasisSF   ComparisonBasis = "SF"
	BasisBed  ComparisonBasis = "Bed"
	BasisUnit ComparisonBasis = "Unit"
)

// Subject carries the appraisal-level settings that parameterize every
// per-comp calculation within one approach.
type Subject struct {
	CompType        CompType
	AnalysisType    AnalysisType
	AdjustmentMode  AdjustmentMode
	ComparisonBasis ComparisonBasis
}

// CompInputs is the raw comparable data the calculator consumes.
type CompInputs struct {
	SalePrice       float64
	BuildingSize    float64
	LandSize        float64
	LandDimension   LandDimension
	PriceSquareFoot float64 // stored unit price; 0 means derive from sale price
	TotalBeds       float64
	TotalUnits      float64
	ComparisonBasis ComparisonBasis
}

// CompResult is the calculator output for one comparable.
type CompResult struct {
	// AdjustedPSF is the unit price after applying the adjustment total,
	// quoted per the effective basis (SF, acre, bed, or unit).
	AdjustedPSF float64
	// AveragedAdjustedPSF is AdjustedPSF weighted by the comp's share.
	AveragedAdjustedPSF float64
	// BlendedAdjustedPSF is the unadjusted unit price weighted by share.
	BlendedAdjustedPSF float64
	// Weight is the comp's percentage share, echoed back.
	Weight float64
	// TotalAdjustment is the aggregated adjustment total, echoed back.
	TotalAdjustment float64
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Round3 rounds to 3 decimal places, half away from zero.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// safeDiv is division with every divide-by-zero collapsing to 0. The wizard
// guarded only the bed and unit paths; here the guard is uniform.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// unitPrice resolves the comparable's base price per square foot (or per
// acre-equivalent square foot). A stored PriceSquareFoot wins except for
// land-only subjects whose analysis unit disagrees with the comp's land
// dimension, where the price is re-derived from the sale price with the
// appropriate 43,560 conversion. The SF-to-acre land size is rounded to 3
// decimals before dividing.
func unitPrice(s Subject, c CompInputs) float64 {
	crossAcre := s.AnalysisType == AnalysisSF && c.LandDimension == LandAcre
	crossSF := s.AnalysisType == AnalysisAcre && c.LandDimension == LandSF

	if c.PriceSquareFoot != 0 {
		if s.CompType == LandOnly {
			if crossAcre {
				return safeDiv(c.SalePrice, c.LandSize*SquareFeetPerAcre)
			}
			if crossSF {
				return safeDiv(c.SalePrice, Round3(c.LandSize/SquareFeetPerAcre))
			}
		}
		return c.PriceSquareFoot
	}

	if s.CompType == LandOnly {
		if crossAcre {
			return safeDiv(c.SalePrice, c.LandSize*SquareFeetPerAcre)
		}
		if crossSF {
			return safeDiv(c.SalePrice, Round3(c.LandSize/SquareFeetPerAcre))
		}
		return Round2(safeDiv(c.SalePrice, c.LandSize))
	}
	return Round2(safeDiv(c.SalePrice, c.BuildingSize))
}

// applyAdjustment applies the aggregated total to a base unit price
// according to the adjustment mode.
func applyAdjustment(mode AdjustmentMode, total, base float64) float64 {
	if mode == ModeDollar {
		return total + base
	}
	return (total/100)*base + base
}

// pricePerAcre computes the adjusted per-acre price. The per-acre path
// rounds a SF-to-acre land size to 2 decimals, one decimal coarser than the
// unit-price path; the divergence is load-bearing for saved approaches.
func pricePerAcre(s Subject, c CompInputs, total float64) float64 {
	crossSF := s.AnalysisType == AnalysisAcre && c.LandDimension == LandSF
	crossAcre := s.AnalysisType == AnalysisSF && c.LandDimension == LandAcre

	var base float64
	switch {
	case crossSF:
		base = safeDiv(c.SalePrice, c.LandSize) * SquareFeetPerAcre
	case crossAcre:
		base = safeDiv(c.SalePrice, Round2(c.LandSize/SquareFeetPerAcre))
	default:
		base = safeDiv(c.SalePrice, c.LandSize)
	}

	if s.AdjustmentMode == ModeDollar {
		return total + base
	}
	return base * ((total + 100) / 100)
}

// Calculate runs the full per-comparable valuation: base unit prices per
// basis, adjustment application, and weighting. total is the aggregated
// adjustment total (see Aggregate) and weight the comp's percentage share.
func Calculate(s Subject, c CompInputs, total, weight float64) CompResult {
	psf := unitPrice(s, c)
	bedPrice := safeDiv(c.SalePrice, c.TotalBeds)
	unitPriceEach := safeDiv(c.SalePrice, c.TotalUnits)

	adjustedPSF := applyAdjustment(s.AdjustmentMode, total, psf)
	adjustedBed := applyAdjustment(s.AdjustmentMode, total, bedPrice)
	adjustedUnit := applyAdjustment(s.AdjustmentMode, total, unitPriceEach)
	adjustedAcre := pricePerAcre(s, c, total)

	// The SF path weights the display-rounded adjusted value so the column
	// total matches what the reviewer sums by eye; the other bases weight
	// the exact value.
	averagedSF := Round2(adjustedPSF) * weight / 100
	averagedAcre := adjustedAcre * weight / 100
	averagedBed := adjustedBed * weight / 100
	averagedUnit := adjustedUnit * weight / 100

	blendedSF := psf * weight / 100
	blendedBed := bedPrice * weight / 100
	blendedUnit := unitPriceEach * weight / 100

	res := CompResult{
		Weight:          weight,
		TotalAdjustment: total,
	}

	switch {
	case c.ComparisonBasis == BasisBed:
		res.AdjustedPSF = adjustedBed
		res.AveragedAdjustedPSF = averagedBed
		res.BlendedAdjustedPSF = blendedBed
	case c.ComparisonBasis == BasisUnit:
		res.AdjustedPSF = adjustedUnit
		res.AveragedAdjustedPSF = averagedUnit
		res.BlendedAdjustedPSF = blendedUnit
	case s.AnalysisType == AnalysisAcre:
		res.AdjustedPSF = adjustedAcre
		res.AveragedAdjustedPSF = averagedAcre
		res.BlendedAdjustedPSF = blendedSF
	default:
		res.AdjustedPSF = adjustedPSF
		res.AveragedAdjustedPSF = averagedSF
		res.BlendedAdjustedPSF = blendedSF
	}
	return res
}
