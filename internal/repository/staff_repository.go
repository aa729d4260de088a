package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/buyback-service/internal/domain"
)

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Create(ctx context.Context, q Querier, staff *domain.StaffMember) error
	Update(ctx context.Context, q Querier, staff *domain.StaffMember) error
	GetByID(ctx context.Context, q Querier, id string) (*domain.StaffMember, error)
	GetByEmail(ctx context.Context, q Querier, email string) (*domain.StaffMember, error)
}

type staffRepository struct{}

// NewStaffRepository instantiates the repository.
func NewStaffRepository() StaffRepository {
	return &staffRepository{}
}

func (r *staffRepository) Create(ctx context.Context, q Querier, staff *domain.StaffMember) error {
	const query = `
        INSERT INTO staff_members (name, email, password_hash, role, store_id, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	return q.QueryRow(ctx, query,
		staff.Name,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.StoreID,
		staff.Active,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, q Querier, staff *domain.StaffMember) error {
	const query = `
        UPDATE staff_members
        SET name=$1, email=$2, password_hash=$3, role=$4, store_id=$5, active_flag=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := q.Exec(ctx, query,
		staff.Name,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.StoreID,
		staff.Active,
		staff.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, q Querier, id string) (*domain.StaffMember, error) {
	const query = `
        SELECT id, name, email, password_hash, role, store_id, active_flag, created_at, updated_at
        FROM staff_members WHERE id=$1`
	return r.fetchSingle(ctx, q, query, id)
}

func (r *staffRepository) GetByEmail(ctx context.Context, q Querier, email string) (*domain.StaffMember, error) {
	const query = `
        SELECT id, name, email, password_hash, role, store_id, active_flag, created_at, updated_at
        FROM staff_members WHERE LOWER(email)=$1`
	return r.fetchSingle(ctx, q, query, strings.ToLower(strings.TrimSpace(email)))
}

func (r *staffRepository) fetchSingle(ctx context.Context, q Querier, query string, arg any) (*domain.StaffMember, error) {
	var staff domain.StaffMember
	if err := q.QueryRow(ctx, query, arg).Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.PasswordHash,
		&staff.Role,
		&staff.StoreID,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}
