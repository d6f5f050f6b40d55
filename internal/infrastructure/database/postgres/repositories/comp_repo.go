package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/harkencre/appraisal-platform/internal/domain/comp"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

type postgresCompRepo struct {
	conn *postgres.Connection
	tx   *sql.Tx
	log  logging.Logger
}

// NewPostgresCompRepo builds the PostgreSQL-backed comp repository.
func NewPostgresCompRepo(conn *postgres.Connection, log logging.Logger) comp.Repository {
	return &postgresCompRepo{conn: conn, log: log}
}

func (r *postgresCompRepo) executor() queryExecutor {
	if r.tx != nil {
		return r.tx
	}
	return r.conn.DB()
}

const compColumns = `
	id, business_name, street_address, city, state, zipcode,
	sale_status, date_sold,
	sale_price, building_size, land_size, land_dimension, price_square_foot,
	total_beds, total_units, comparison_basis,
	cover_photo_key, notes,
	created_at, updated_at
`

func (r *postgresCompRepo) Create(ctx context.Context, c *comp.Comp) error {
	query := `
		INSERT INTO comps (
			business_name, street_address, city, state, zipcode,
			sale_status, date_sold,
			sale_price, building_size, land_size, land_dimension, price_square_foot,
			total_beds, total_units, comparison_basis,
			cover_photo_key, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15, $16, $17
		) RETURNING id, created_at, updated_at
	`
	err := r.executor().QueryRowContext(ctx, query,
		c.BusinessName, c.StreetAddress, c.City, c.State, c.ZipCode,
		c.SaleStatus, c.DateSold,
		c.SalePrice, c.BuildingSize, c.LandSize, c.LandDimension, c.PriceSquareFoot,
		c.TotalBeds, c.TotalUnits, c.ComparisonBasis,
		c.CoverPhotoKey, c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create comp")
	}
	return nil
}

func (r *postgresCompRepo) GetByID(ctx context.Context, id common.ID) (*comp.Comp, error) {
	query := `SELECT ` + compColumns + ` FROM comps WHERE id = $1 AND deleted_at IS NULL`
	return scanComp(r.executor().QueryRowContext(ctx, query, id))
}

func (r *postgresCompRepo) GetByIDs(ctx context.Context, ids []common.ID) ([]*comp.Comp, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}

	query := `SELECT ` + compColumns + ` FROM comps WHERE id = ANY($1) AND deleted_at IS NULL`
	rows, err := r.executor().QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load comps")
	}
	defer rows.Close()

	byID := make(map[common.ID]*comp.Comp, len(ids))
	for rows.Next() {
		c, err := scanComp(rows)
		if err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate comps")
	}

	// Preserve the caller's order; a missing ID is a hard error because
	// approach rows must never reference a comp that no longer exists.
	out := make([]*comp.Comp, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeCompNotFound, "comp %s not found", id)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *postgresCompRepo) Update(ctx context.Context, c *comp.Comp) error {
	query := `
		UPDATE comps SET
			business_name = $1, street_address = $2, city = $3, state = $4, zipcode = $5,
			sale_status = $6, date_sold = $7,
			sale_price = $8, building_size = $9, land_size = $10, land_dimension = $11,
			price_square_foot = $12, total_beds = $13, total_units = $14, comparison_basis = $15,
			cover_photo_key = $16, notes = $17,
			updated_at = NOW()
		WHERE id = $18 AND deleted_at IS NULL
	`
	res, err := r.executor().ExecContext(ctx, query,
		c.BusinessName, c.StreetAddress, c.City, c.State, c.ZipCode,
		c.SaleStatus, c.DateSold,
		c.SalePrice, c.BuildingSize, c.LandSize, c.LandDimension,
		c.PriceSquareFoot, c.TotalBeds, c.TotalUnits, c.ComparisonBasis,
		c.CoverPhotoKey, c.Notes,
		c.ID,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update comp")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeCompNotFound, "comp not found")
	}
	return nil
}

func (r *postgresCompRepo) Delete(ctx context.Context, id common.ID) error {
	query := `UPDATE comps SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.executor().ExecContext(ctx, query, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete comp")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeCompNotFound, "comp not found")
	}
	return nil
}

func (r *postgresCompRepo) List(ctx context.Context, p common.Pagination) ([]*comp.Comp, int64, error) {
	var total int64
	err := r.executor().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comps WHERE deleted_at IS NULL`,
	).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count comps")
	}

	query := `SELECT ` + compColumns + `
		FROM comps WHERE deleted_at IS NULL
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.executor().QueryContext(ctx, query, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list comps")
	}
	defer rows.Close()

	var out []*comp.Comp
	for rows.Next() {
		c, err := scanComp(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate comps")
	}
	return out, total, nil
}

func (r *postgresCompRepo) SetCoverPhotoKey(ctx context.Context, id common.ID, key string) error {
	query := `UPDATE comps SET cover_photo_key = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`
	res, err := r.executor().ExecContext(ctx, query, key, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to set cover photo key")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeCompNotFound, "comp not found")
	}
	return nil
}

func scanComp(s scanner) (*comp.Comp, error) {
	var (
		c        comp.Comp
		dateSold sql.NullTime
	)
	err := s.Scan(
		&c.ID, &c.BusinessName, &c.StreetAddress, &c.City, &c.State, &c.ZipCode,
		&c.SaleStatus, &dateSold,
		&c.SalePrice, &c.BuildingSize, &c.LandSize, &c.LandDimension, &c.PriceSquareFoot,
		&c.TotalBeds, &c.TotalUnits, &c.ComparisonBasis,
		&c.CoverPhotoKey, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeCompNotFound, "comp not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan comp")
	}
	if dateSold.Valid {
		t := dateSold.Time
		c.DateSold = &t
	}
	return &c, nil
}
