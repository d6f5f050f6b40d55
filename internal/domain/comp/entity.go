// Package comp implements the comparable-transaction aggregate: sold or
// pending properties used to estimate the subject's value, their display
// ordering, and the projection into the valuation engine's inputs.
package comp

import (
	"time"

	"github.com/harkencre/appraisal-platform/internal/domain/valuation"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

// SaleStatus is the transaction state of a comparable.
type SaleStatus string

const (
	SalePending SaleStatus = "Pending"
	SaleClosed  SaleStatus = "Closed"
)

// Comp is a comparable transaction record.
type Comp struct {
	common.BaseEntity

	BusinessName  string `json:"business_name,omitempty"`
	StreetAddress string `json:"street_address,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	ZipCode       string `json:"zipcode,omitempty"`

	SaleStatus SaleStatus `json:"sale_status"`
	DateSold   *time.Time `json:"date_sold,omitempty"`

	SalePrice       float64                   `json:"sale_price"`
	BuildingSize    float64                   `json:"building_size"`
	LandSize        float64                   `json:"land_size"`
	LandDimension   valuation.LandDimension   `json:"land_dimension,omitempty"`
	PriceSquareFoot float64                   `json:"price_square_foot"`
	TotalBeds       float64                   `json:"total_beds"`
	TotalUnits      float64                   `json:"total_units"`
	ComparisonBasis valuation.ComparisonBasis `json:"comparison_basis,omitempty"`

	// CoverPhotoKey is the object key of the comp's cover photo in the
	// attachment store; empty when no photo has been uploaded.
	CoverPhotoKey string `json:"cover_photo_key,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// Validate enforces construction invariants.
func (c *Comp) Validate() error {
	switch c.SaleStatus {
	case "", SalePending, SaleClosed:
	default:
		return errors.New(errors.CodeValidation, "sale_status must be Pending or Closed")
	}
	switch c.LandDimension {
	case "", valuation.LandSF, valuation.LandAcre:
	default:
		return errors.New(errors.CodeValidation, "land_dimension must be SF or ACRE")
	}
	switch c.ComparisonBasis {
	case "", valuation.BasisSF, valuation.BasisBed, valuation.BasisUnit:
	default:
		return errors.New(errors.CodeValidation, "comparison_basis must be SF, Bed, or Unit")
	}
	if c.SalePrice < 0 || c.BuildingSize < 0 || c.LandSize < 0 {
		return errors.New(errors.CodeValidation, "prices and sizes must not be negative")
	}
	return nil
}

// Inputs projects the comp into the valuation engine's input struct.
func (c *Comp) Inputs() valuation.CompInputs {
	return valuation.CompInputs{
		SalePrice:       c.SalePrice,
		BuildingSize:    c.BuildingSize,
		LandSize:        c.LandSize,
		LandDimension:   c.LandDimension,
		PriceSquareFoot: c.PriceSquareFoot,
		TotalBeds:       c.TotalBeds,
		TotalUnits:      c.TotalUnits,
		ComparisonBasis: c.ComparisonBasis,
	}
}
