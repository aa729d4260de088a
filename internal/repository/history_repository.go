package repository

import (
	"context"

	"github.com/spec-kit/buyback-service/internal/domain"
)

// HistoryRepository stores append-only communication history entries.
// Entries are never updated or deleted; there is deliberately no mutation
// surface beyond Append.
type HistoryRepository interface {
	Append(ctx context.Context, q Querier, entry *domain.HistoryEntry) error
	ListByRequest(ctx context.Context, q Querier, requestID string) ([]domain.HistoryEntry, error)
}

type historyRepository struct{}

// NewHistoryRepository builds the repository.
func NewHistoryRepository() HistoryRepository {
	return &historyRepository{}
}

func (r *historyRepository) Append(ctx context.Context, q Querier, entry *domain.HistoryEntry) error {
	const query = `
        INSERT INTO communication_history (request_id, entry_type, actor_id, actor_name, content,
            old_status, new_status, appraisal_count, total_value)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return q.QueryRow(ctx, query,
		entry.RequestID,
		entry.Type,
		entry.ActorID,
		entry.ActorName,
		entry.Content,
		entry.OldStatus,
		entry.NewStatus,
		entry.AppraisalCount,
		entry.TotalValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historyRepository) ListByRequest(ctx context.Context, q Querier, requestID string) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT id, request_id, entry_type, actor_id, actor_name, content,
               old_status, new_status, appraisal_count, total_value, created_at
        FROM communication_history WHERE request_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := q.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.Type,
			&entry.ActorID,
			&entry.ActorName,
			&entry.Content,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.AppraisalCount,
			&entry.TotalValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
