package repository

import (
	"context"
	"time"

	"github.com/spec-kit/buyback-service/internal/events"
)

// OutboxRepository persists notification events in the same transaction as
// the state change they describe, giving at-least-once delivery once the
// worker drains them.
type OutboxRepository interface {
	Enqueue(ctx context.Context, q Querier, event *events.Event) error
	FetchPending(ctx context.Context, q Querier, limit int) ([]events.OutboxRow, error)
	MarkProcessed(ctx context.Context, q Querier, id string) error
	MarkFailed(ctx context.Context, q Querier, id string, reason string) error
}

type outboxRepository struct{}

// NewOutboxRepository builds the repository.
func NewOutboxRepository() OutboxRepository {
	return &outboxRepository{}
}

func (r *outboxRepository) Enqueue(ctx context.Context, q Querier, event *events.Event) error {
	payload, err := event.MarshalPayload()
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO notification_outbox (event_type, request_id, request_number, recipient_contact, payload, status)
        VALUES ($1,$2,$3,$4,$5,'pending')
        RETURNING id, created_at`
	return q.QueryRow(ctx, query,
		event.Type,
		event.RequestID,
		event.RequestNumber,
		event.RecipientContact,
		payload,
	).Scan(&event.ID, &event.Timestamp)
}

func (r *outboxRepository) FetchPending(ctx context.Context, q Querier, limit int) ([]events.OutboxRow, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, event_type, request_id, request_number, recipient_contact, payload, retry_count, created_at
        FROM notification_outbox
        WHERE status='pending'
        ORDER BY created_at ASC
        LIMIT $1`
	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []events.OutboxRow
	for rows.Next() {
		var row events.OutboxRow
		if err := rows.Scan(
			&row.ID,
			&row.EventType,
			&row.RequestID,
			&row.RequestNumber,
			&row.RecipientContact,
			&row.Payload,
			&row.RetryCount,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, q Querier, id string) error {
	_, err := q.Exec(ctx,
		`UPDATE notification_outbox SET status='processed', processed_at=$1 WHERE id=$2`,
		time.Now().UTC(), id)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, q Querier, id string, reason string) error {
	_, err := q.Exec(ctx,
		`UPDATE notification_outbox
         SET status = CASE WHEN retry_count + 1 >= 5 THEN 'failed' ELSE 'pending' END,
             retry_count = retry_count + 1,
             last_error = $1
         WHERE id=$2`,
		reason, id)
	return err
}
