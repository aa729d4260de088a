package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/buyback-service/internal/config"
	"github.com/spec-kit/buyback-service/internal/events"
)

// NotificationService delivers customer notifications for drained outbox
// rows. Delivery failures are reported to the worker for retry; they never
// propagate back to the mutation that produced the event.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{logger: logger, cfg: cfg}
}

// Deliver routes one outbox row to its transport stubs.
func (n *NotificationService) Deliver(ctx context.Context, row events.OutboxRow) error {
	switch row.EventType {
	case events.EventRequestCreated:
		n.sendEmailStub(ctx, row, "your buyback request was received")
	case events.EventStatusChanged:
		n.sendEmailStub(ctx, row, "your buyback request status changed")
		n.sendWebhookStub(ctx, row)
	case events.EventAppraisalCompleted:
		n.sendEmailStub(ctx, row, "your items have been appraised")
	case events.EventRequestDeleted:
		n.sendWebhookStub(ctx, row)
	default:
		return fmt.Errorf("unknown event type %q", row.EventType)
	}
	return nil
}

func (n *NotificationService) sendEmailStub(_ context.Context, row events.OutboxRow, subject string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || row.RecipientContact == nil {
		return
	}
	n.logger.Info("notification email",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("request_number", row.RequestNumber),
		zap.String("event_type", string(row.EventType)),
		zap.String("subject", subject))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, row events.OutboxRow) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Info("notification webhook",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("request_number", row.RequestNumber),
		zap.String("event_type", string(row.EventType)))
}
