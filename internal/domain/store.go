package domain

import "time"

// Store represents a physical buyback location.
type Store struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
