package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/harkencre/appraisal-platform/internal/domain/approach"
	"github.com/harkencre/appraisal-platform/internal/domain/valuation"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/database/postgres"
	"github.com/harkencre/appraisal-platform/internal/infrastructure/monitoring/logging"
	"github.com/harkencre/appraisal-platform/pkg/errors"
	"github.com/harkencre/appraisal-platform/pkg/types/common"
)

type postgresApproachRepo struct {
	conn *postgres.Connection
	tx   *sql.Tx
	log  logging.Logger
}

// NewPostgresApproachRepo builds the PostgreSQL-backed approach repository.
func NewPostgresApproachRepo(conn *postgres.Connection, log logging.Logger) approach.Repository {
	return &postgresApproachRepo{conn: conn, log: log}
}

func (r *postgresApproachRepo) executor() queryExecutor {
	if r.tx != nil {
		return r.tx
	}
	return r.conn.DB()
}

const approachColumns = `
	id, evaluation_id, type, note,
	averaged_adjusted_psf, weight, approach_value, indicated_value_psf, incremental_value,
	evaluation_weight,
	created_at, updated_at
`

// Save upserts the approach keyed by (evaluation_id, type) and replaces its
// comp rows, all in one transaction. The wizard saves the full approach on
// every change, so rows carry no identity across saves.
func (r *postgresApproachRepo) Save(ctx context.Context, a *approach.Approach) error {
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback()

	query := `
		INSERT INTO approaches (
			evaluation_id, type, note,
			averaged_adjusted_psf, weight, approach_value, indicated_value_psf, incremental_value,
			evaluation_weight
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (evaluation_id, type) DO UPDATE SET
			note = EXCLUDED.note,
			averaged_adjusted_psf = EXCLUDED.averaged_adjusted_psf,
			weight = EXCLUDED.weight,
			approach_value = EXCLUDED.approach_value,
			indicated_value_psf = EXCLUDED.indicated_value_psf,
			incremental_value = EXCLUDED.incremental_value,
			evaluation_weight = EXCLUDED.evaluation_weight,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		a.EvaluationID, a.Type, a.Note,
		a.AveragedAdjustedPSF, a.Weight, a.ApproachValue, a.IndicatedValuePSF, a.IncrementalValue,
		a.EvaluationWeight,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save approach")
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM approach_comp_rows WHERE approach_id = $1`, a.ID); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to clear approach comp rows")
	}

	rowQuery := `
		INSERT INTO approach_comp_rows (
			approach_id, comp_id, ord, overall_comparability, adjustment_note,
			adjustments, qualitative_adjustments,
			total_adjustment, adjusted_psf, averaged_adjusted_psf, blended_adjusted_psf, weight
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	for i := range a.CompRows {
		row := &a.CompRows[i]
		adjustments, err := json.Marshal(row.Adjustments)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode adjustments")
		}
		qualitative, err := json.Marshal(row.QualitativeAdjustments)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode qualitative adjustments")
		}
		err = tx.QueryRowContext(ctx, rowQuery,
			a.ID, row.CompID, row.Order, row.OverallComparability, row.AdjustmentNote,
			adjustments, qualitative,
			row.TotalAdjustment, row.AdjustedPSF, row.AveragedAdjustedPSF, row.BlendedAdjustedPSF, row.Weight,
		).Scan(&row.ID)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert approach comp row")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit approach")
	}
	return nil
}

func (r *postgresApproachRepo) GetByID(ctx context.Context, id common.ID) (*approach.Approach, error) {
	query := `SELECT ` + approachColumns + ` FROM approaches WHERE id = $1`
	a, err := scanApproach(r.executor().QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadCompRows(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *postgresApproachRepo) GetByEvaluationAndType(ctx context.Context, evaluationID common.ID, t approach.Type) (*approach.Approach, error) {
	query := `SELECT ` + approachColumns + ` FROM approaches WHERE evaluation_id = $1 AND type = $2`
	a, err := scanApproach(r.executor().QueryRowContext(ctx, query, evaluationID, t))
	if err != nil {
		return nil, err
	}
	if err := r.loadCompRows(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *postgresApproachRepo) ListByEvaluation(ctx context.Context, evaluationID common.ID) ([]*approach.Approach, error) {
	query := `SELECT ` + approachColumns + ` FROM approaches WHERE evaluation_id = $1 ORDER BY type`
	rows, err := r.executor().QueryContext(ctx, query, evaluationID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list approaches")
	}
	defer rows.Close()

	var out []*approach.Approach
	for rows.Next() {
		a, err := scanApproach(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate approaches")
	}

	for _, a := range out {
		if err := r.loadCompRows(ctx, a); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *postgresApproachRepo) Delete(ctx context.Context, id common.ID) error {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM approaches WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete approach")
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrCodeApproachNotFound, "approach not found")
	}
	return nil
}

func (r *postgresApproachRepo) loadCompRows(ctx context.Context, a *approach.Approach) error {
	query := `
		SELECT id, comp_id, ord, overall_comparability, adjustment_note,
			adjustments, qualitative_adjustments,
			total_adjustment, adjusted_psf, averaged_adjusted_psf, blended_adjusted_psf, weight
		FROM approach_comp_rows WHERE approach_id = $1 ORDER BY ord
	`
	rows, err := r.executor().QueryContext(ctx, query, a.ID)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load approach comp rows")
	}
	defer rows.Close()

	a.CompRows = nil
	for rows.Next() {
		var (
			row         approach.CompRow
			adjustments []byte
			qualitative []byte
		)
		err := rows.Scan(
			&row.ID, &row.CompID, &row.Order, &row.OverallComparability, &row.AdjustmentNote,
			&adjustments, &qualitative,
			&row.TotalAdjustment, &row.AdjustedPSF, &row.AveragedAdjustedPSF, &row.BlendedAdjustedPSF, &row.Weight,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan approach comp row")
		}
		if len(adjustments) > 0 {
			var lines []valuation.AdjustmentLine
			if err := json.Unmarshal(adjustments, &lines); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode adjustments")
			}
			row.Adjustments = lines
		}
		if len(qualitative) > 0 {
			var quals []approach.QualitativeAdjustment
			if err := json.Unmarshal(qualitative, &quals); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode qualitative adjustments")
			}
			row.QualitativeAdjustments = quals
		}
		a.CompRows = append(a.CompRows, row)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate approach comp rows")
	}
	return nil
}

func scanApproach(s scanner) (*approach.Approach, error) {
	var a approach.Approach
	err := s.Scan(
		&a.ID, &a.EvaluationID, &a.Type, &a.Note,
		&a.AveragedAdjustedPSF, &a.Weight, &a.ApproachValue, &a.IndicatedValuePSF, &a.IncrementalValue,
		&a.EvaluationWeight,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeApproachNotFound, "approach not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan approach")
	}
	return &a, nil
}
