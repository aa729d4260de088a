package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/buyback-service/internal/domain"
)

// AppraisalRepository stores appraisal child rows. The row set for a request
// is only ever replaced wholesale inside a caller-owned transaction.
type AppraisalRepository interface {
	ReplaceAll(ctx context.Context, tx pgx.Tx, requestID string, appraisals []domain.Appraisal) error
	ListByRequest(ctx context.Context, q Querier, requestID string) ([]domain.Appraisal, error)
	SumAppraisedValue(ctx context.Context, q Querier, requestID string) (int64, error)
}

type appraisalRepository struct{}

// NewAppraisalRepository builds the repository.
func NewAppraisalRepository() AppraisalRepository {
	return &appraisalRepository{}
}

func (r *appraisalRepository) ReplaceAll(ctx context.Context, tx pgx.Tx, requestID string, appraisals []domain.Appraisal) error {
	if _, err := tx.Exec(ctx, `DELETE FROM appraisals WHERE request_id=$1`, requestID); err != nil {
		return err
	}
	const query = `
        INSERT INTO appraisals (request_id, item_name, item_condition, market_value, appraised_value,
            appraisal_notes, appraiser_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	for i := range appraisals {
		a := &appraisals[i]
		a.RequestID = requestID
		if err := tx.QueryRow(ctx, query,
			a.RequestID,
			a.ItemName,
			a.ItemCondition,
			a.MarketValue,
			a.AppraisedValue,
			a.AppraisalNotes,
			a.AppraiserID,
		).Scan(&a.ID, &a.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *appraisalRepository) ListByRequest(ctx context.Context, q Querier, requestID string) ([]domain.Appraisal, error) {
	const query = `
        SELECT id, request_id, item_name, item_condition, market_value, appraised_value,
               appraisal_notes, appraiser_id, created_at
        FROM appraisals WHERE request_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := q.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Appraisal
	for rows.Next() {
		var a domain.Appraisal
		if err := rows.Scan(
			&a.ID,
			&a.RequestID,
			&a.ItemName,
			&a.ItemCondition,
			&a.MarketValue,
			&a.AppraisedValue,
			&a.AppraisalNotes,
			&a.AppraiserID,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// SumAppraisedValue recomputes the derived total from the stored rows. The
// parent row never caches this value.
func (r *appraisalRepository) SumAppraisedValue(ctx context.Context, q Querier, requestID string) (int64, error) {
	var total int64
	err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(appraised_value), 0) FROM appraisals WHERE request_id=$1`,
		requestID,
	).Scan(&total)
	return total, err
}
