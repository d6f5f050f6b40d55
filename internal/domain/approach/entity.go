// Package approach implements the persisted result of running one valuation
// approach (sales, cost, residential cost) against an appraisal: the ordered
// per-comp rows, their adjustments, and the reconciled rollup. One engine
// serves all three approach types; the type is data, not code.
package approach

import (
	"github.com/harkencre/appraisal-platform/internal/domain/valuation"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// Type identifies which approach an Approach record belongs to.
type Type string

const (
	TypeSales           Type = "sales"
	TypeCost            Type = "cost"
	TypeResidentialCost Type = "residential_cost"
)

// Valid reports whether t is a known approach type.
func (t Type) Valid() bool {
	switch t {
	case TypeSales, TypeCost, TypeResidentialCost:
		return true
	}
	return false
}

// Comparability is the qualitative similar/superior/inferior rating on a
// comp row.
type Comparability string

const (
	ComparabilitySimilar  Comparability = "similar"
	ComparabilitySuperior Comparability = "superior"
	ComparabilityInferior Comparability = "inferior"
)

// QualitativeAdjustment is a non-numeric adjustment note attached to a row.
type QualitativeAdjustment struct {
	Key   string `json:"adj_key"`
	Value string `json:"adj_value"`
}

// CompRow is one comparable's row within an approach: the link to the comp,
// its adjustments as entered, and the calculator outputs at last save.
// Everything derived is recomputed from scratch before each save; stored
// figures are a snapshot, never an input.
type CompRow struct {
	ID     common.ID `json:"id,omitempty"`
	CompID common.ID `json:"comp_id"`
	Order  int       `json:"order"`

	OverallComparability Comparability `json:"overall_comparability"`
	AdjustmentNote       string        `json:"adjustment_note,omitempty"`

	Adjustments            []valuation.AdjustmentLine `json:"comps_adjustments,omitempty"`
	QualitativeAdjustments []QualitativeAdjustment    `json:"comps_qualitative_adjustments,omitempty"`

	TotalAdjustment     float64 `json:"total_adjustment"`
	AdjustedPSF         float64 `json:"adjusted_psf"`
	AveragedAdjustedPSF float64 `json:"averaged_adjusted_psf"`
	BlendedAdjustedPSF  float64 `json:"blended_adjusted_psf"`
	Weight              float64 `json:"weight"`
}

// Approach is the aggregate for one approach's saved state on an appraisal.
type Approach struct {
	common.BaseEntity

	EvaluationID common.ID `json:"evaluation_id"`
	Type         Type      `json:"type"`
	Note         string    `json:"note,omitempty"`

	// Reconciled rollup (see valuation.Reconcile).
	AveragedAdjustedPSF float64 `json:"averaged_adjusted_psf"`
	Weight              float64 `json:"weight"`
	ApproachValue       float64 `json:"approach_value"`
	IndicatedValuePSF   float64 `json:"indicated_value_psf"`
	IncrementalValue    float64 `json:"incremental_value"`

	// EvaluationWeight is this approach's stored share of the final
	// cross-approach reconciliation.
	EvaluationWeight float64 `json:"evaluation_weight"`

	CompRows []CompRow `json:"comp_data,omitempty"`
}

// Validate enforces the structural invariants: a known type, the comp cap,
// and the weight ceiling. maxComps comes from configuration (default 4).
func (a *Approach) Validate(maxComps int) error {
	if !a.Type.Valid() {
		return errors.New(errors.ErrCodeApproachTypeInvalid,
			"approach type must be sales, cost, or residential_cost")
	}
	if a.EvaluationID == "" {
		return errors.New(errors.CodeValidation, "evaluation_id is required")
	}
	if maxComps > 0 && len(a.CompRows) > maxComps {
		return errors.Newf(errors.CodeCompLimitExceeded,
			"approach holds %d comps; limit is %d", len(a.CompRows), maxComps)
	}
	if valuation.ExceedsLimit(a.weights()) {
		return errors.New(errors.ErrCodeCompWeightExceeded,
			"comp weights exceed 100%")
	}
	for _, row := range a.CompRows {
		if row.CompID == "" {
			return errors.New(errors.CodeValidation, "comp row missing comp_id")
		}
		switch row.OverallComparability {
		case "", ComparabilitySimilar, ComparabilitySuperior, ComparabilityInferior:
		default:
			return errors.New(errors.CodeValidation,
				"overall_comparability must be similar, superior, or inferior")
		}
	}
	return nil
}

func (a *Approach) weights() []float64 {
	ws := make([]float64, 0, len(a.CompRows))
	for _, row := range a.CompRows {
		ws = append(ws, row.Weight)
	}
	return ws
}

// HasComp reports whether the approach already links the given comp.
func (a *Approach) HasComp(id common.ID) bool {
	for _, row := range a.CompRows {
		if row.CompID == id {
			return true
		}
	}
	return false
}

// RemoveComp drops the row linking the given comp and renumbers the
// remaining rows. It reports whether a row was removed; the caller is
// responsible for rebalancing weights and recomputing.
func (a *Approach) RemoveComp(id common.ID) bool {
	for i, row := range a.CompRows {
		if row.CompID == id {
			a.CompRows = append(a.CompRows[:i], a.CompRows[i+1:]...)
			a.renumber()
			return true
		}
	}
	return false
}

// RebalanceWeights resets every row to the equal split (last row absorbs
// the rounding remainder).
func (a *Approach) RebalanceWeights() {
	ws := valuation.Rebalance(len(a.CompRows))
	for i := range a.CompRows {
		a.CompRows[i].Weight = ws[i]
	}
}

func (a *Approach) renumber() {
	for i := range a.CompRows {
		a.CompRows[i].Order = i + 1
	}
}

// Results projects the stored rows as calculator results for reconciliation.
func (a *Approach) Results() []valuation.CompResult {
	out := make([]valuation.CompResult, 0, len(a.CompRows))
	for _, row := range a.CompRows {
		out = append(out, valuation.CompResult{
			AdjustedPSF:         row.AdjustedPSF,
			AveragedAdjustedPSF: row.AveragedAdjustedPSF,
			BlendedAdjustedPSF:  row.BlendedAdjustedPSF,
			Weight:              row.Weight,
			TotalAdjustment:     row.TotalAdjustment,
		})
	}
	return out
}

// ApplyReconciliation copies the rollup onto the aggregate.
func (a *Approach) ApplyReconciliation(rec valuation.Reconciliation) {
	a.AveragedAdjustedPSF = rec.AveragedAdjustedPSF
	a.Weight = rec.TotalWeight
	a.ApproachValue = rec.ApproachValue
	a.IndicatedValuePSF = rec.IndicatedPSF
	a.IncrementalValue = rec.IncrementalValue
}
