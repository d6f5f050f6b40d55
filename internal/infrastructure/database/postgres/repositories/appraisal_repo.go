package repositories

import (
	"context"
	"database/sql"

	"github.com/harkencre/appraisal-platform/internal/domain/appraisal"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

type postgresAppraisalRepo struct {
	conn *postgres.Connection
	tx   *sql.Tx
	log  logging.Logger
}

// NewPostgresAppraisalRepo builds the PostgreSQL-backed appraisal repository.
func NewPostgresAppraisalRepo(conn *postgres.Connection, log logging.Logger) appraisal.Repository {
	return &postgresAppraisalRepo{conn: conn, log: log}
}

func (r *postgresAppraisalRepo) executor() queryExecutor {
	if r.tx != nil {
		return r.tx
	}
	return r.conn.DB()
}

const appraisalColumns = `
	id, file_number, business_name,
	street_address, street_suite, city, county, state, zipcode,
	price, price_square_foot, building_size, land_size, land_dimension,
	comp_adjustment_mode, analysis_type, comp_type, comparison_basis,
	weighted_market_value, rounding, summary, submitted,
	created_at, updated_at
`

func (r *postgresAppraisalRepo) Create(ctx context.Context, a *appraisal.Appraisal) error {
	query := `
		INSERT INTO appraisals (
			file_number, business_name,
			street_address, street_suite, city, county, state, zipcode,
			price, price_square_foot, building_size, land_size, land_dimension,
			comp_adjustment_mode, analysis_type, comp_type, comparison_basis,
			weighted_market_value, rounding, summary, submitted
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		) RETURNING id, created_at, updated_at
	`
	err := r.executor().QueryRowContext(ctx, query,
		a.FileNumber, a.BusinessName,
		a.StreetAddress, a.StreetSuite, a.City, a.County, a.State, a.ZipCode,
		a.Price, a.PriceSquareFoot, a.BuildingSize, a.LandSize, a.LandDimension,
		a.CompAdjustmentMode, a.AnalysisType, a.CompType, a.ComparisonBasis,
		a.WeightedMarketValue, a.Rounding, a.Summary, a.Submitted,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create appraisal")
	}

	if len(a.Zonings) > 0 {
		if err := r.insertZonings(ctx, a.ID, a.Zonings); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresAppraisalRepo) GetByID(ctx context.Context, id common.ID) (*appraisal.Appraisal, error) {
	query := `SELECT ` + appraisalColumns + ` FROM appraisals WHERE id = $1 AND deleted_at IS NULL`
	a, err := scanAppraisal(r.executor().QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	zonings, err := r.zoningsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Zonings = zonings
	return a, nil
}

func (r *postgresAppraisalRepo) Update(ctx context.Context, a *appraisal.Appraisal) error {
	query := `
		UPDATE appraisals SET
			file_number = $1, business_name = $2,
			street_address = $3, street_suite = $4, city = $5, county = $6, state = $7, zipcode = $8,
			price = $9, price_square_foot = $10, building_size = $11, land_size = $12, land_dimension = $13,
			comp_adjustment_mode = $14, analysis_type = $15, comp_type = $16, comparison_basis = $17,
			weighted_market_value = $18, rounding = $19, summary = $20, submitted = $21,
			updated_at = NOW()
		WHERE id = $22 AND deleted_at IS NULL
	`
	res, err := r.executor().ExecContext(ctx, query,
		a.FileNumber, a.BusinessName,
		a.StreetAddress, a.StreetSuite, a.City, a.County, a.State, a.ZipCode,
		a.Price, a.PriceSquareFoot, a.BuildingSize, a.LandSize, a.LandDimension,
		a.CompAdjustmentMode, a.AnalysisType, a.CompType, a.ComparisonBasis,
		a.WeightedMarketValue, a.Rounding, a.Summary, a.Submitted,
		a.ID,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update appraisal")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeAppraisalNotFound, "appraisal not found")
	}
	return nil
}

func (r *postgresAppraisalRepo) Delete(ctx context.Context, id common.ID) error {
	query := `UPDATE appraisals SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.executor().ExecContext(ctx, query, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete appraisal")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeAppraisalNotFound, "appraisal not found")
	}
	return nil
}

func (r *postgresAppraisalRepo) List(ctx context.Context, p common.Pagination) ([]*appraisal.Appraisal, int64, error) {
	var total int64
	err := r.executor().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appraisals WHERE deleted_at IS NULL`,
	).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count appraisals")
	}

	query := `SELECT ` + appraisalColumns + `
		FROM appraisals WHERE deleted_at IS NULL
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.executor().QueryContext(ctx, query, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list appraisals")
	}
	defer rows.Close()

	var out []*appraisal.Appraisal
	for rows.Next() {
		a, err := scanAppraisal(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate appraisals")
	}
	return out, total, nil
}

func (r *postgresAppraisalRepo) ReplaceZonings(ctx context.Context, id common.ID, zonings []appraisal.Zoning) error {
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback()

	txRepo := &postgresAppraisalRepo{conn: r.conn, tx: tx, log: r.log}

	if _, err := tx.ExecContext(ctx, `DELETE FROM zonings WHERE appraisal_id = $1`, id); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to clear zonings")
	}
	if err := txRepo.insertZonings(ctx, id, zonings); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE appraisals SET updated_at = NOW() WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to touch appraisal")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit zonings")
	}
	return nil
}

func (r *postgresAppraisalRepo) SetWeightedMarketValue(ctx context.Context, id common.ID, value float64) error {
	query := `
		UPDATE appraisals SET weighted_market_value = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`
	res, err := r.executor().ExecContext(ctx, query, value, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to set weighted market value")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeAppraisalNotFound, "appraisal not found")
	}
	return nil
}

func (r *postgresAppraisalRepo) insertZonings(ctx context.Context, id common.ID, zonings []appraisal.Zoning) error {
	query := `
		INSERT INTO zonings (appraisal_id, ord, zone, sub_zone, sq_ft, weight_sf, bed, unit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id
	`
	for i := range zonings {
		z := &zonings[i]
		err := r.executor().QueryRowContext(ctx, query,
			id, i+1, z.Zone, z.SubZone, z.SqFt, z.WeightSF, z.Bed, z.Unit,
		).Scan(&z.ID)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert zoning")
		}
	}
	return nil
}

func (r *postgresAppraisalRepo) zoningsFor(ctx context.Context, id common.ID) ([]appraisal.Zoning, error) {
	query := `
		SELECT id, zone, sub_zone, sq_ft, weight_sf, bed, unit
		FROM zonings WHERE appraisal_id = $1 ORDER BY ord
	`
	rows, err := r.executor().QueryContext(ctx, query, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load zonings")
	}
	defer rows.Close()

	var zonings []appraisal.Zoning
	for rows.Next() {
		var z appraisal.Zoning
		if err := rows.Scan(&z.ID, &z.Zone, &z.SubZone, &z.SqFt, &z.WeightSF, &z.Bed, &z.Unit); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan zoning")
		}
		zonings = append(zonings, z)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate zonings")
	}
	return zonings, nil
}

func scanAppraisal(s scanner) (*appraisal.Appraisal, error) {
	var a appraisal.Appraisal
	err := s.Scan(
		&a.ID, &a.FileNumber, &a.BusinessName,
		&a.StreetAddress, &a.StreetSuite, &a.City, &a.County, &a.State, &a.ZipCode,
		&a.Price, &a.PriceSquareFoot, &a.BuildingSize, &a.LandSize, &a.LandDimension,
		&a.CompAdjustmentMode, &a.AnalysisType, &a.CompType, &a.ComparisonBasis,
		&a.WeightedMarketValue, &a.Rounding, &a.Summary, &a.Submitted,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeAppraisalNotFound, "appraisal not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan appraisal")
	}
	return &a, nil
}
