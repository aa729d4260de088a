package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/buyback-service/internal/repository"
	"github.com/spec-kit/buyback-service/internal/service"
)

// OutboxWorker drains pending notification events on an interval, giving
// at-least-once delivery for events committed alongside state changes.
type OutboxWorker struct {
	db            repository.Querier
	outbox        repository.OutboxRepository
	notifications *service.NotificationService
	interval      time.Duration
	batchSize     int
	logger        *zap.Logger
}

// NewOutboxWorker constructs the worker.
func NewOutboxWorker(db repository.Querier, outbox repository.OutboxRepository, notifications *service.NotificationService, interval time.Duration, logger *zap.Logger) *OutboxWorker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OutboxWorker{
		db:            db,
		outbox:        outbox,
		notifications: notifications,
		interval:      interval,
		batchSize:     50,
		logger:        logger,
	}
}

// Run polls until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOnce(ctx)
		}
	}
}

func (w *OutboxWorker) drainOnce(ctx context.Context) {
	rows, err := w.outbox.FetchPending(ctx, w.db, w.batchSize)
	if err != nil {
		w.logger.Error("outbox fetch failed", zap.Error(err))
		return
	}
	for _, row := range rows {
		if err := w.notifications.Deliver(ctx, row); err != nil {
			w.logger.Warn("notification delivery failed",
				zap.String("outbox_id", row.ID),
				zap.String("event_type", string(row.EventType)),
				zap.Error(err))
			if markErr := w.outbox.MarkFailed(ctx, w.db, row.ID, err.Error()); markErr != nil {
				w.logger.Error("outbox mark failed", zap.Error(markErr))
			}
			continue
		}
		if err := w.outbox.MarkProcessed(ctx, w.db, row.ID); err != nil {
			w.logger.Error("outbox mark processed failed", zap.Error(err))
		}
	}
}
