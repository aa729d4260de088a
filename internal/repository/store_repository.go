package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/buyback-service/internal/domain"
)

// StoreRepository manages the buyback store registry.
type StoreRepository interface {
	Create(ctx context.Context, q Querier, store *domain.Store) error
	Update(ctx context.Context, q Querier, store *domain.Store) error
	GetByID(ctx context.Context, q Querier, id string) (*domain.Store, error)
	ListActive(ctx context.Context, q Querier) ([]domain.Store, error)
}

type storeRepository struct{}

// NewStoreRepository builds the repository.
func NewStoreRepository() StoreRepository {
	return &storeRepository{}
}

func (r *storeRepository) Create(ctx context.Context, q Querier, store *domain.Store) error {
	const query = `
        INSERT INTO stores (name, address, phone, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return q.QueryRow(ctx, query,
		store.Name,
		store.Address,
		store.Phone,
		store.IsActive,
	).Scan(&store.ID, &store.CreatedAt, &store.UpdatedAt)
}

func (r *storeRepository) Update(ctx context.Context, q Querier, store *domain.Store) error {
	const query = `
        UPDATE stores SET name=$1, address=$2, phone=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := q.Exec(ctx, query,
		store.Name,
		store.Address,
		store.Phone,
		store.IsActive,
		store.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *storeRepository) GetByID(ctx context.Context, q Querier, id string) (*domain.Store, error) {
	const query = `
        SELECT id, name, address, phone, is_active, created_at, updated_at
        FROM stores WHERE id=$1`
	var store domain.Store
	if err := q.QueryRow(ctx, query, id).Scan(
		&store.ID,
		&store.Name,
		&store.Address,
		&store.Phone,
		&store.IsActive,
		&store.CreatedAt,
		&store.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) ListActive(ctx context.Context, q Querier) ([]domain.Store, error) {
	const query = `
        SELECT id, name, address, phone, is_active, created_at, updated_at
        FROM stores WHERE is_active = TRUE`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Store
	for rows.Next() {
		var store domain.Store
		if err := rows.Scan(&store.ID, &store.Name, &store.Address, &store.Phone, &store.IsActive, &store.CreatedAt, &store.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, store)
	}
	return result, rows.Err()
}
