package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// BookingChangedData is emitted whenever a booking is created, changes
// status or is cancelled.
type BookingChangedData struct {
	BookingID     uuid.UUID `json:"booking_id"`
	SupplierID    uuid.UUID `json:"supplier_id"`
	CarID         uuid.UUID `json:"car_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	ChangedAt     time.Time `json:"changed_at"`
}

// CarChangedData is emitted when a car joins, changes or leaves a fleet.
type CarChangedData struct {
	CarID      uuid.UUID `json:"car_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	Name       string    `json:"name"`
	Deleted    bool      `json:"deleted"`
	ChangedAt  time.Time `json:"changed_at"`
}

// ViewRecordedData is emitted for every car page view.
type ViewRecordedData struct {
	CarID      uuid.UUID `json:"car_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	Paid       bool      `json:"paid"`
	ViewedAt   time.Time `json:"viewed_at"`
}

// SupplierRef reads just the supplier out of any event payload above.
type SupplierRef struct {
	SupplierID uuid.UUID `json:"supplier_id"`
}
