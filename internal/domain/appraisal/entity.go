// Package appraisal implements the subject-property aggregate: the appraisal
// record under valuation, its zoning / unit-mix rows, and the settings that
// parameterize every approach computed against it. Business rules live here;
// persistence is behind the Repository interface.
package appraisal

import (
	"github.com/harkencre/appraisal-platform/internal/domain/valuation"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// Zoning is one zoning / unit-mix row on the subject property. WeightSF is
// the percentage of SqFt participating in the size-weighted effective area.
type Zoning struct {
	ID       common.ID `json:"id"`
	Zone     string    `json:"zone"`
	SubZone  string    `json:"sub_zone,omitempty"`
	SqFt     float64   `json:"sq_ft"`
	WeightSF float64   `json:"weight_sf"`
	Bed      float64   `json:"bed"`
	Unit     float64   `json:"unit"`
}

// Appraisal is the aggregate root for a subject property under valuation.
// Fields mirror the appraisals table; the valuation settings block drives
// every per-comp calculation in the linked approaches.
type Appraisal struct {
	common.BaseEntity

	// Identification
	FileNumber   string `json:"file_number,omitempty"`
	BusinessName string `json:"business_name,omitempty"`

	// Address
	StreetAddress string `json:"street_address,omitempty"`
	StreetSuite   string `json:"street_suite,omitempty"`
	City          string `json:"city,omitempty"`
	County        string `json:"county,omitempty"`
	State         string `json:"state,omitempty"`
	ZipCode       string `json:"zipcode,omitempty"`

	// Physical
	Price           float64                 `json:"price"`
	PriceSquareFoot float64                 `json:"price_square_foot"`
	BuildingSize    float64                 `json:"building_size"`
	LandSize        float64                 `json:"land_size"`
	LandDimension   valuation.LandDimension `json:"land_dimension,omitempty"`

	// Valuation settings
	CompAdjustmentMode valuation.AdjustmentMode   `json:"comp_adjustment_mode"`
	AnalysisType       valuation.AnalysisType     `json:"analysis_type"`
	CompType           valuation.CompType         `json:"comp_type"`
	ComparisonBasis    valuation.ComparisonBasis  `json:"comparison_basis"`

	// Reconciliation output
	WeightedMarketValue float64 `json:"weighted_market_value"`
	// Rounding is the increment the reconciled value is snapped to
	// (e.g. 5000); 0 disables snapping.
	Rounding float64 `json:"rounding"`

	Summary   string `json:"summary,omitempty"`
	Submitted bool   `json:"submitted"`

	Zonings []Zoning `json:"zonings,omitempty"`
}

// Validate enforces construction invariants on the settings block. Address
// and physical fields are filled progressively by the wizard and stay
// optional.
func (a *Appraisal) Validate() error {
	switch a.CompAdjustmentMode {
	case "", valuation.ModeDollar, valuation.ModePercent:
	default:
		return errors.New(errors.CodeValidation,
			"comp_adjustment_mode must be Dollar or Percent")
	}
	switch a.AnalysisType {
	case "", valuation.AnalysisSF, valuation.AnalysisAcre:
	default:
		return errors.New(errors.CodeValidation,
			"analysis_type must be $/SF or $/Acre")
	}
	switch a.CompType {
	case "", valuation.BuildingWithLand, valuation.LandOnly:
	default:
		return errors.New(errors.CodeValidation,
			"comp_type must be building_with_land or land_only")
	}
	switch a.ComparisonBasis {
	case "", valuation.BasisSF, valuation.BasisBed, valuation.BasisUnit:
	default:
		return errors.New(errors.CodeValidation,
			"comparison_basis must be SF, Bed, or Unit")
	}
	if a.Rounding < 0 {
		return errors.New(errors.CodeValidation, "rounding must not be negative")
	}
	for _, z := range a.Zonings {
		if err := z.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single zoning row.
func (z Zoning) Validate() error {
	if z.SqFt < 0 || z.Bed < 0 || z.Unit < 0 {
		return errors.New(errors.ErrCodeZoningInvalid,
			"zoning sizes and counts must not be negative")
	}
	if z.WeightSF < 0 || z.WeightSF > 100 {
		return errors.New(errors.ErrCodeZoningInvalid,
			"zoning weight_sf must be within [0, 100]")
	}
	return nil
}

// Subject projects the appraisal's settings into the valuation engine's
// parameter struct.
func (a *Appraisal) Subject() valuation.Subject {
	return valuation.Subject{
		CompType:        a.CompType,
		AnalysisType:    a.AnalysisType,
		AdjustmentMode:  a.CompAdjustmentMode,
		ComparisonBasis: a.ComparisonBasis,
	}
}

// ZoningShares projects the zoning rows for reconciliation.
func (a *Appraisal) ZoningShares() []valuation.ZoningShare {
	out := make([]valuation.ZoningShare, 0, len(a.Zonings))
	for _, z := range a.Zonings {
		out = append(out, valuation.ZoningShare{
			SqFt:     z.SqFt,
			WeightSF: z.WeightSF,
			Bed:      z.Bed,
			Unit:     z.Unit,
		})
	}
	return out
}

// ApplyWeightedMarketValue records the cross-approach reconciliation result,
// snapped to the appraisal's rounding increment.
func (a *Appraisal) ApplyWeightedMarketValue(incrementals []float64) {
	a.WeightedMarketValue = valuation.WeightedMarketValue(incrementals, a.Rounding)
}

// Submit marks the appraisal as submitted. A submitted appraisal rejects
// further approach saves.
func (a *Appraisal) Submit() error {
	if a.Submitted {
		return errors.New(errors.ErrCodeAppraisalSubmitted, "appraisal already submitted")
	}
	a.Submitted = true
	return nil
}
