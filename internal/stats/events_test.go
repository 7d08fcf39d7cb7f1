package stats

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/richxcame/rental-insights/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	subjects  []string
	consumers []string
	failOn    string
}

func (f *fakeSubscriber) Subscribe(_ context.Context, subject, consumerName string, _ eventbus.HandlerFunc) error {
	if subject == f.failOn {
		return assert.AnError
	}
	f.subjects = append(f.subjects, subject)
	f.consumers = append(f.consumers, consumerName)
	return nil
}

type fakeInvalidator struct {
	agencies []uuid.UUID
	admin    int
	err      error
}

func (f *fakeInvalidator) InvalidateAgency(_ context.Context, agencyID uuid.UUID) error {
	f.agencies = append(f.agencies, agencyID)
	return f.err
}

func (f *fakeInvalidator) InvalidateAdmin(context.Context) error {
	f.admin++
	return f.err
}

func TestEventInvalidator_Start(t *testing.T) {
	sub := &fakeSubscriber{}
	inv := NewEventInvalidator(sub, &fakeInvalidator{})

	require.NoError(t, inv.Start(context.Background()))
	assert.Equal(t, []string{eventbus.SubjectAllBookings, eventbus.SubjectAllCars}, sub.subjects)
	assert.Equal(t, []string{"stats-bookings", "stats-cars"}, sub.consumers)
}

func TestEventInvalidator_StartFails(t *testing.T) {
	sub := &fakeSubscriber{failOn: eventbus.SubjectAllBookings}
	err := NewEventInvalidator(sub, &fakeInvalidator{}).Start(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, sub.subjects)
}

func TestEventInvalidator_HandleEvent(t *testing.T) {
	agencyID := uuid.New()

	bookingEvent, err := eventbus.NewEvent(eventbus.SubjectBookingCreated, "bookings", eventbus.BookingChangedData{
		BookingID:  uuid.New(),
		SupplierID: agencyID,
		CarID:      uuid.New(),
		Status:     "accepted",
	})
	require.NoError(t, err)

	carEvent, err := eventbus.NewEvent(eventbus.SubjectCarDeleted, "fleet", eventbus.CarChangedData{
		CarID:      uuid.New(),
		SupplierID: agencyID,
		Deleted:    true,
	})
	require.NoError(t, err)

	tests := []struct {
		name         string
		event        *eventbus.Event
		wantAgencies []uuid.UUID
		wantAdmin    int
	}{
		{
			name:         "booking event invalidates its agency",
			event:        bookingEvent,
			wantAgencies: []uuid.UUID{agencyID},
		},
		{
			name:         "car event invalidates its agency",
			event:        carEvent,
			wantAgencies: []uuid.UUID{agencyID},
		},
		{
			name:      "event without supplier invalidates platform reports",
			event:     &eventbus.Event{ID: "e1", Type: eventbus.SubjectBookingUpdated, Data: json.RawMessage(`{"booking_id":"` + uuid.NewString() + `"}`)},
			wantAdmin: 1,
		},
		{
			name:  "unreadable payload is dropped",
			event: &eventbus.Event{ID: "e2", Type: eventbus.SubjectBookingUpdated, Data: json.RawMessage(`"not an object"`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeInvalidator{}
			err := NewEventInvalidator(&fakeSubscriber{}, fake).HandleEvent(context.Background(), tt.event)

			require.NoError(t, err)
			assert.Equal(t, tt.wantAgencies, fake.agencies)
			assert.Equal(t, tt.wantAdmin, fake.admin)
		})
	}
}

func TestEventInvalidator_HandleEventPropagatesInvalidationError(t *testing.T) {
	event, err := eventbus.NewEvent(eventbus.SubjectBookingCancelled, "bookings", eventbus.SupplierRef{SupplierID: uuid.New()})
	require.NoError(t, err)

	fake := &fakeInvalidator{err: assert.AnError}
	err = NewEventInvalidator(&fakeSubscriber{}, fake).HandleEvent(context.Background(), event)
	assert.ErrorIs(t, err, assert.AnError)
}
