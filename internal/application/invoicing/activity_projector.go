package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/invoicing"
	"github.com/solimansoliman/SmartAccountant-v1005-sub002/internal/domain/shared"
	"go.uber.org/zap"
)

// ActivityProjector writes the invoice audit trail from published events.
// Each event is projected at most once, keyed by its event id.
type ActivityProjector struct {
	activities invoicing.ActivityRepository
	store      shared.IdempotencyStore
	ttl        time.Duration
	logger     *zap.Logger
}

// NewActivityProjector creates the projector. ttl bounds how long processed
// event ids are remembered.
func NewActivityProjector(activities invoicing.ActivityRepository, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *ActivityProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityProjector{activities: activities, store: store, ttl: ttl, logger: logger}
}

// EventTypes returns the invoice events
func (p *ActivityProjector) EventTypes() []string {
	return invoicing.InvoiceEventTypes()
}

// Handle stores one activity for an invoice event
func (p *ActivityProjector) Handle(ctx context.Context, event shared.DomainEvent) error {
	invoiceEvent, ok := event.(invoicing.InvoiceEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}

	key := "activity:" + event.EventID().String()
	fresh, err := p.store.MarkProcessed(ctx, key, p.ttl)
	if err != nil {
		return fmt.Errorf("failed to mark event %s: %w", event.EventID(), err)
	}
	if !fresh {
		p.logger.Debug("duplicate invoice event skipped",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	activity, err := invoicing.NewActivity(invoiceEvent)
	if err == nil {
		err = p.activities.Save(ctx, activity)
	}
	if err != nil {
		if forgetErr := p.store.Forget(ctx, key); forgetErr != nil {
			p.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(forgetErr))
		}
		return fmt.Errorf("failed to record activity for %s: %w", event.EventType(), err)
	}
	return nil
}

var _ shared.EventHandler = (*ActivityProjector)(nil)
