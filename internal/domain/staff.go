package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleSuperAdmin   StaffRole = "super_admin"
	StaffRoleAdmin        StaffRole = "admin"
	StaffRoleStoreManager StaffRole = "store_manager"
	StaffRoleStoreStaff   StaffRole = "store_staff"
)

// IsAdmin reports whether the role carries unrestricted access.
func (r StaffRole) IsAdmin() bool {
	return r == StaffRoleAdmin || r == StaffRoleSuperAdmin
}

// IsStoreScoped reports whether the role is confined to its own store.
func (r StaffRole) IsStoreScoped() bool {
	return r == StaffRoleStoreManager || r == StaffRoleStoreStaff
}

// StaffMember models a reviewer, appraiser or administrator.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	StoreID      *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
