package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/buyback-service/internal/domain"
)

// ErrVersionConflict signals a stale optimistic version at commit time; the
// caller lost a concurrent update race and should retry.
var ErrVersionConflict = errors.New("request version conflict")

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx so repository
// methods can run standalone or inside a service-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RequestFilter captures staff search parameters.
type RequestFilter struct {
	Statuses    []domain.RequestStatus
	Priorities  []domain.RequestPriority
	StoreID     *string
	Email       *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// RequestRepository encapsulates buyback request persistence.
type RequestRepository interface {
	Create(ctx context.Context, q Querier, req *domain.BuybackRequest) error
	Update(ctx context.Context, q Querier, req *domain.BuybackRequest) error
	Delete(ctx context.Context, q Querier, id string) error
	GetByID(ctx context.Context, q Querier, id string) (*domain.BuybackRequest, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.BuybackRequest, error)
	GetByRequestNumber(ctx context.Context, q Querier, number string) (*domain.BuybackRequest, error)
	ListWithFilter(ctx context.Context, q Querier, filter RequestFilter) ([]domain.BuybackRequest, error)
	NextRequestNumber(ctx context.Context, tx pgx.Tx, day time.Time) (string, error)
}

type requestRepository struct{}

// NewRequestRepository instantiates the repository.
func NewRequestRepository() RequestRepository {
	return &requestRepository{}
}

// Pool adapts a pgxpool.Pool to the Querier interface.
func Pool(p *pgxpool.Pool) Querier { return p }

const requestColumns = `id, request_number, status, priority, auth_method, verification_token,
       customer_name, customer_email, customer_phone, address, postal_code,
       items, item_categories, estimated_total_value,
       preferred_store_id, preferred_pickup_date, assigned_staff_id,
       reviewed_by, reviewed_at, submitter_ip, version, created_at, updated_at`

func (r *requestRepository) Create(ctx context.Context, q Querier, req *domain.BuybackRequest) error {
	const query = `
        INSERT INTO buyback_requests (request_number, status, priority, auth_method, verification_token,
            customer_name, customer_email, customer_phone, address, postal_code,
            items, item_categories, estimated_total_value,
            preferred_store_id, preferred_pickup_date, assigned_staff_id, submitter_ip, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,1)
        RETURNING id, version, created_at, updated_at`
	return q.QueryRow(ctx, query,
		req.RequestNumber,
		req.Status,
		req.Priority,
		req.AuthMethod,
		req.VerificationToken,
		req.CustomerName,
		req.CustomerEmail,
		req.CustomerPhone,
		req.Address,
		req.PostalCode,
		req.Items,
		req.ItemCategories,
		req.EstimatedTotalValue,
		req.PreferredStoreID,
		req.PreferredPickupDate,
		req.AssignedStaffID,
		req.SubmitterIP,
	).Scan(&req.ID, &req.Version, &req.CreatedAt, &req.UpdatedAt)
}

// Update writes mutable aggregate fields guarded by the optimistic version.
// The item snapshot, request number, auth method and verification token are
// immutable and deliberately absent from the statement.
func (r *requestRepository) Update(ctx context.Context, q Querier, req *domain.BuybackRequest) error {
	const query = `
        UPDATE buyback_requests SET status=$1, priority=$2,
            preferred_store_id=$3, preferred_pickup_date=$4, assigned_staff_id=$5,
            reviewed_by=$6, reviewed_at=$7, version=version+1, updated_at=NOW()
        WHERE id=$8 AND version=$9
        RETURNING version, updated_at`
	err := q.QueryRow(ctx, query,
		req.Status,
		req.Priority,
		req.PreferredStoreID,
		req.PreferredPickupDate,
		req.AssignedStaffID,
		req.ReviewedBy,
		req.ReviewedAt,
		req.ID,
		req.Version,
	).Scan(&req.Version, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// The row exists under a newer version or not at all; disambiguate.
		var exists bool
		if checkErr := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM buyback_requests WHERE id=$1)`, req.ID).Scan(&exists); checkErr != nil {
			return checkErr
		}
		if exists {
			return ErrVersionConflict
		}
		return pgx.ErrNoRows
	}
	return err
}

func (r *requestRepository) Delete(ctx context.Context, q Querier, id string) error {
	cmd, err := q.Exec(ctx, `DELETE FROM buyback_requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, q Querier, id string) (*domain.BuybackRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM buyback_requests WHERE id=$1`, requestColumns)
	return r.fetchSingle(ctx, q, query, id)
}

// GetByIDForUpdate locks the row for the duration of the transaction so the
// read-modify-write sequence in update cannot interleave with a concurrent
// writer.
func (r *requestRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.BuybackRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM buyback_requests WHERE id=$1 FOR UPDATE`, requestColumns)
	return r.fetchSingle(ctx, tx, query, id)
}

func (r *requestRepository) GetByRequestNumber(ctx context.Context, q Querier, number string) (*domain.BuybackRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM buyback_requests WHERE request_number=$1`, requestColumns)
	return r.fetchSingle(ctx, q, query, number)
}

func (r *requestRepository) fetchSingle(ctx context.Context, q Querier, query string, arg any) (*domain.BuybackRequest, error) {
	var req domain.BuybackRequest
	if err := scanRequest(q.QueryRow(ctx, query, arg), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, q Querier, filter RequestFilter) ([]domain.BuybackRequest, error) {
	base := fmt.Sprintf(`SELECT %s FROM buyback_requests`, requestColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.StoreID != nil {
		args = append(args, *filter.StoreID)
		clauses = append(clauses, fmt.Sprintf("preferred_store_id=$%d", len(args)))
	}
	if filter.Email != nil {
		args = append(args, strings.ToLower(strings.TrimSpace(*filter.Email)))
		clauses = append(clauses, fmt.Sprintf("LOWER(customer_email)=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(customer_name) LIKE %s OR LOWER(request_number) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

// NextRequestNumber allocates the next per-day sequence and formats the
// natural key. The counter upsert runs in the creation transaction, so a
// rollback never burns a visible number gap within the same day.
func (r *requestRepository) NextRequestNumber(ctx context.Context, tx pgx.Tx, day time.Time) (string, error) {
	const query = `
        INSERT INTO request_counters (day, seq) VALUES ($1, 1)
        ON CONFLICT (day) DO UPDATE SET seq = request_counters.seq + 1
        RETURNING seq`
	var seq int
	if err := tx.QueryRow(ctx, query, day.Format("2006-01-02")).Scan(&seq); err != nil {
		return "", err
	}
	return domain.FormatRequestNumber(day, seq), nil
}

func scanRequest(row pgx.Row, req *domain.BuybackRequest) error {
	return row.Scan(
		&req.ID,
		&req.RequestNumber,
		&req.Status,
		&req.Priority,
		&req.AuthMethod,
		&req.VerificationToken,
		&req.CustomerName,
		&req.CustomerEmail,
		&req.CustomerPhone,
		&req.Address,
		&req.PostalCode,
		&req.Items,
		&req.ItemCategories,
		&req.EstimatedTotalValue,
		&req.PreferredStoreID,
		&req.PreferredPickupDate,
		&req.AssignedStaffID,
		&req.ReviewedBy,
		&req.ReviewedAt,
		&req.SubmitterIP,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
}

func scanRequests(rows pgx.Rows) ([]domain.BuybackRequest, error) {
	var result []domain.BuybackRequest
	for rows.Next() {
		var req domain.BuybackRequest
		if err := scanRequest(rows, &req); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}
