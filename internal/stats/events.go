package stats

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/richxcame/rental-insights/pkg/errors"
	"github.com/richxcame/rental-insights/pkg/eventbus"
	"github.com/richxcame/rental-insights/pkg/logger"
	"go.uber.org/zap"
)

// Subscriber is the part of the event bus the invalidator needs
type Subscriber interface {
	Subscribe(ctx context.Context, subject, consumerName string, handler eventbus.HandlerFunc) error
}

// Invalidator drops cached reports
type Invalidator interface {
	InvalidateAgency(ctx context.Context, agencyID uuid.UUID) error
	InvalidateAdmin(ctx context.Context) error
}

// EventInvalidator drops cached reports when bookings or fleets change
type EventInvalidator struct {
	bus         Subscriber
	invalidator Invalidator
}

// NewEventInvalidator creates an invalidator fed by bus
func NewEventInvalidator(bus Subscriber, invalidator Invalidator) *EventInvalidator {
	return &EventInvalidator{bus: bus, invalidator: invalidator}
}

// Start subscribes to booking and car events. Views are not subscribed:
// they arrive constantly and the cache TTL bounds their staleness.
func (e *EventInvalidator) Start(ctx context.Context) error {
	if err := e.bus.Subscribe(ctx, eventbus.SubjectAllBookings, "stats-bookings", e.HandleEvent); err != nil {
		return err
	}
	return e.bus.Subscribe(ctx, eventbus.SubjectAllCars, "stats-cars", e.HandleEvent)
}

// HandleEvent invalidates the reports touched by one event. Returning an
// error makes the bus redeliver it.
func (e *EventInvalidator) HandleEvent(ctx context.Context, event *eventbus.Event) error {
	var ref eventbus.SupplierRef
	if err := json.Unmarshal(event.Data, &ref); err != nil {
		logger.WarnContext(ctx, "dropping event with unreadable payload",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.Error(err),
		)
		return nil
	}

	var err error
	if ref.SupplierID == uuid.Nil {
		err = e.invalidator.InvalidateAdmin(ctx)
	} else {
		err = e.invalidator.InvalidateAgency(ctx, ref.SupplierID)
	}
	if err != nil {
		logger.WarnContext(ctx, "report cache invalidation failed, event will be redelivered",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.Error(err),
		)
		errors.CaptureError(ctx, err, map[string]string{
			"event_type": event.Type,
			"component":  "report-cache",
		})
	}
	return err
}
