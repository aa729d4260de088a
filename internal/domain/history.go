package domain

import "time"

// HistoryType captures what a communication history entry records.
type HistoryType string

const (
	HistoryTypeNote               HistoryType = "note"
	HistoryTypeStatusChange       HistoryType = "status_change"
	HistoryTypeAppraisalCompleted HistoryType = "appraisal_completed"
	HistoryTypeCustomerNote       HistoryType = "customer_note"
)

// HistoryEntry is an immutable audit trail record. Entries are append-only:
// every observed status transition produces exactly one status_change entry,
// and no entry is ever edited or removed.
type HistoryEntry struct {
	ID             string
	RequestID      string
	Type           HistoryType
	ActorID        *string
	ActorName      string
	Content        string
	OldStatus      *RequestStatus
	NewStatus      *RequestStatus
	AppraisalCount *int
	TotalValue     *int64
	CreatedAt      time.Time
}
