package stats

import (
	"time"

	"github.com/google/uuid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// booking builds an accepted-by-default record spanning from..to
func booking(status BookingStatus, price float64, from, to time.Time) BookingRecord {
	return BookingRecord{
		ID:           uuid.New(),
		Status:       status,
		Price:        price,
		From:         from,
		To:           to,
		SupplierID:   uuid.MustParse("00000000-0000-0000-0000-00000000000a"),
		SupplierName: "Agency A",
		CarID:        uuid.MustParse("00000000-0000-0000-0000-0000000000c1"),
		CarName:      "Clio",
	}
}

func withCar(b BookingRecord, id, name string) BookingRecord {
	b.CarID = uuid.MustParse(id)
	b.CarName = name
	return b
}

func withSupplier(b BookingRecord, id, name string) BookingRecord {
	b.SupplierID = uuid.MustParse(id)
	b.SupplierName = name
	return b
}

func withDriver(b BookingRecord, id uuid.UUID) BookingRecord {
	b.DriverID = &id
	return b
}
