package events

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/buyback-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated     EventType = "request_created"
	EventStatusChanged      EventType = "request_status_changed"
	EventAppraisalCompleted EventType = "request_appraisal_completed"
	EventRequestDeleted     EventType = "request_deleted"
)

// Event is a domain event recorded in the outbox; the id and timestamp are
// assigned by the outbox insert.
type Event struct {
	ID               string
	Type             EventType
	RequestID        string
	RequestNumber    string
	RecipientContact *string
	Timestamp        time.Time
	Payload          any
}

// MarshalPayload serializes the payload for the outbox jsonb column.
func (e *Event) MarshalPayload() ([]byte, error) {
	if e.Payload == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.Payload)
}

// OutboxRow is a pending outbox record as read back by the worker.
type OutboxRow struct {
	ID               string
	EventType        EventType
	RequestID        string
	RequestNumber    string
	RecipientContact *string
	Payload          []byte
	RetryCount       int
	CreatedAt        time.Time
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Status              domain.RequestStatus `json:"status"`
	AuthMethod          domain.AuthMethod    `json:"auth_method"`
	ItemCount           int                  `json:"item_count"`
	EstimatedTotalValue int64                `json:"estimated_total_value"`
	PreferredStoreID    *string              `json:"preferred_store_id,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
	ActorName string               `json:"actor_name,omitempty"`
	Comment   string               `json:"comment,omitempty"`
}

// AppraisalCompletedPayload payload.
type AppraisalCompletedPayload struct {
	AppraisalCount int   `json:"appraisal_count"`
	TotalValue     int64 `json:"total_value"`
}

// RequestDeletedPayload payload.
type RequestDeletedPayload struct {
	DeletedBy string               `json:"deleted_by"`
	Status    domain.RequestStatus `json:"status"`
}
