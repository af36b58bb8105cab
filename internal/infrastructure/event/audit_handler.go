package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
)

// AuditLogHandler writes one structured log line per domain event, giving
// a tenant-scoped trail of postings, orders and imports
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates the handler. It subscribes to every event type.
func NewAuditLogHandler(l *zap.Logger) *AuditLogHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &AuditLogHandler{logger: l.Named("audit")}
}

func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	logger.For(ctx, h.logger).Info("Domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("event_tenant_id", event.TenantID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
