package domain

import "time"

// StaffCredential is the decoded bearer credential for the staff track:
// who is calling, with what role, scoped to which store.
type StaffCredential struct {
	ID      string
	Role    StaffRole
	StoreID *string
}

// CustomerProof is a proof-of-ownership presented by an unauthenticated
// customer. Exactly one field is expected per request.
type CustomerProof struct {
	Token *string
	Email *string
	Phone *string
}

// Empty reports whether no proof was presented at all.
func (p CustomerProof) Empty() bool {
	return (p.Token == nil || *p.Token == "") &&
		(p.Email == nil || *p.Email == "") &&
		(p.Phone == nil || *p.Phone == "")
}

// Token represents issued staff token metadata.
type Token struct {
	SubjectID string
	Role      StaffRole
	StoreID   *string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
