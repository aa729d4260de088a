package domain

import (
	"fmt"
	"regexp"
	"time"
)

// RequestStatus enumerates lifecycle states for buyback requests.
type RequestStatus string

const (
	RequestStatusDraft     RequestStatus = "draft"
	RequestStatusSubmitted RequestStatus = "submitted"
	RequestStatusReviewing RequestStatus = "reviewing"
	RequestStatusAppraised RequestStatus = "appraised"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// AllStatuses lists every valid request status.
var AllStatuses = []RequestStatus{
	RequestStatusDraft,
	RequestStatusSubmitted,
	RequestStatusReviewing,
	RequestStatusAppraised,
	RequestStatusApproved,
	RequestStatusRejected,
	RequestStatusCompleted,
	RequestStatusCancelled,
}

// IsValid reports whether the status is a member of the closed enum.
func (s RequestStatus) IsValid() bool {
	for _, candidate := range AllStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the customer-facing flow.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusRejected || s == RequestStatusCancelled
}

// RequestPriority enumerates handling urgency.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityNormal RequestPriority = "normal"
	PriorityHigh   RequestPriority = "high"
	PriorityUrgent RequestPriority = "urgent"
)

// IsValid reports whether the priority is a member of the closed enum.
func (p RequestPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// AuthMethod records how the submitting customer identified themselves.
// Fixed at creation; social providers use the "social:<provider>" form.
type AuthMethod string

const (
	AuthMethodGuest AuthMethod = "guest"
	AuthMethodEmail AuthMethod = "email"
	AuthMethodPhone AuthMethod = "phone"

	authMethodSocialPrefix = "social:"
)

// IsValid reports whether the auth method is recognized.
func (m AuthMethod) IsValid() bool {
	switch m {
	case AuthMethodGuest, AuthMethodEmail, AuthMethodPhone:
		return true
	}
	return m.IsSocial()
}

// IsSocial reports whether the method carries a social provider.
func (m AuthMethod) IsSocial() bool {
	return len(m) > len(authMethodSocialPrefix) && m[:len(authMethodSocialPrefix)] == authMethodSocialPrefix
}

// ItemCategory is the closed set of sellable goods categories.
type ItemCategory string

const (
	CategoryElectronics ItemCategory = "electronics"
	CategoryAppliances  ItemCategory = "appliances"
	CategoryFurniture   ItemCategory = "furniture"
	CategoryInstruments ItemCategory = "instruments"
	CategoryGames       ItemCategory = "games"
	CategoryBooks       ItemCategory = "books"
	CategoryApparel     ItemCategory = "apparel"
	CategoryOther       ItemCategory = "other"
)

// IsValid reports whether the category is a member of the closed enum.
func (c ItemCategory) IsValid() bool {
	switch c {
	case CategoryElectronics, CategoryAppliances, CategoryFurniture,
		CategoryInstruments, CategoryGames, CategoryBooks, CategoryApparel, CategoryOther:
		return true
	}
	return false
}

// RequestItem is an immutable snapshot of one submitted good. The snapshot
// never changes after creation, even as appraisal proceeds. Tagged for the
// jsonb column it is stored in.
type RequestItem struct {
	Name           string       `json:"name"`
	Category       ItemCategory `json:"category"`
	Condition      string       `json:"condition,omitempty"`
	EstimatedValue int64        `json:"estimated_value"`
	Description    string       `json:"description,omitempty"`
	Manufacturer   string       `json:"manufacturer,omitempty"`
	Model          string       `json:"model,omitempty"`
}

// MaxRequestItems bounds the item snapshot per request.
const MaxRequestItems = 50

// BuybackRequest is the aggregate root for a buyback intake.
type BuybackRequest struct {
	ID            string
	RequestNumber string
	Status        RequestStatus
	Priority      RequestPriority
	AuthMethod    AuthMethod

	// VerificationToken is set only for guest requests and never reissued.
	// Comparison must be constant-time.
	VerificationToken *string

	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string
	Address       *string
	PostalCode    *string

	Items               []RequestItem
	ItemCategories      []ItemCategory
	EstimatedTotalValue int64

	PreferredStoreID    *string
	PreferredPickupDate *time.Time
	AssignedStaffID     *string
	ReviewedBy          *string
	ReviewedAt          *time.Time

	// SubmitterIP is captured for abuse tracing and is never exposed to
	// customer-facing reads.
	SubmitterIP *string

	History []HistoryEntry

	// Version is the optimistic concurrency counter; a stale version at
	// commit time surfaces as CONFLICT instead of a silently lost update.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasContact reports whether the request carries the contact channel its
// auth method requires.
func (r *BuybackRequest) HasContact() bool {
	switch r.AuthMethod {
	case AuthMethodEmail:
		return r.CustomerEmail != nil && *r.CustomerEmail != ""
	case AuthMethodPhone:
		return r.CustomerPhone != nil && *r.CustomerPhone != ""
	default:
		// Guest and social submissions accept either channel.
		return (r.CustomerEmail != nil && *r.CustomerEmail != "") ||
			(r.CustomerPhone != nil && *r.CustomerPhone != "")
	}
}

// DeriveCategories returns the deduplicated union of item categories and
// any caller-supplied extras, preserving first-seen order.
func DeriveCategories(items []RequestItem, extra []ItemCategory) []ItemCategory {
	seen := make(map[ItemCategory]struct{}, len(items)+len(extra))
	out := make([]ItemCategory, 0, len(items)+len(extra))
	add := func(c ItemCategory) {
		if c == "" {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, item := range items {
		add(item.Category)
	}
	for _, c := range extra {
		add(c)
	}
	return out
}

// RequestNumberPattern matches the human-facing natural key.
var RequestNumberPattern = regexp.MustCompile(`^BR\d{8}-\d{4}$`)

// FormatRequestNumber builds the natural key for a day and sequence.
func FormatRequestNumber(day time.Time, seq int) string {
	return fmt.Sprintf("BR%s-%04d", day.Format("20060102"), seq)
}

// SumEstimatedValue totals the submission-time item estimates.
func SumEstimatedValue(items []RequestItem) int64 {
	var total int64
	for _, item := range items {
		total += item.EstimatedValue
	}
	return total
}
