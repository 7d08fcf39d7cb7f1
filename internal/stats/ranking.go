package stats

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTopLimit is the size of every top-N list in a report.
const DefaultTopLimit = 5

// modelAccumulator collects per-car figures in a single pass. The display
// names are those of the last booking seen for the car.
type modelAccumulator struct {
	carID        uuid.UUID
	carName      string
	supplierID   uuid.UUID
	supplierName string
	bookings     int
	revenue      decimal.Decimal
	bookedDays   int
}

// accumulateModels groups accepted bookings by car id. Booked days are only
// counted when a window is given.
func accumulateModels(records []BookingRecord, rangeStart, rangeEnd time.Time) []*modelAccumulator {
	byCar := make(map[uuid.UUID]*modelAccumulator)
	for _, b := range records {
		if !b.Status.IsAccepted() {
			continue
		}
		acc, ok := byCar[b.CarID]
		if !ok {
			acc = &modelAccumulator{carID: b.CarID}
			byCar[b.CarID] = acc
		}
		acc.carName = b.CarName
		acc.supplierID = b.SupplierID
		acc.supplierName = b.SupplierName
		acc.bookings++
		acc.revenue = acc.revenue.Add(decimal.NewFromFloat(sanitizePrice(b.Price)))
		if !rangeEnd.IsZero() {
			acc.bookedDays += BookedDaysInRange(b, rangeStart, rangeEnd)
		}
	}

	out := make([]*modelAccumulator, 0, len(byCar))
	for _, acc := range byCar {
		out = append(out, acc)
	}
	return out
}

func limitTo[T any](items []T, limit int) []T {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// TopModelsByBookings ranks cars by accepted booking count. Ties are broken by
// car id so the ranking does not depend on map iteration order.
func TopModelsByBookings(records []BookingRecord, limit int) []TopModel {
	models := accumulateModels(records, time.Time{}, time.Time{})
	sort.Slice(models, func(i, j int) bool {
		if models[i].bookings != models[j].bookings {
			return models[i].bookings > models[j].bookings
		}
		return models[i].carID.String() < models[j].carID.String()
	})

	models = limitTo(models, limit)
	top := make([]TopModel, 0, len(models))
	for _, m := range models {
		top = append(top, TopModel{
			Model:      m.carName,
			Bookings:   m.bookings,
			AgencyID:   m.supplierID,
			AgencyName: m.supplierName,
			ModelID:    m.carID,
		})
	}
	return top
}

// RevenueByModel ranks cars by accepted revenue, descending.
func RevenueByModel(records []BookingRecord, limit int) []ModelRevenue {
	models := accumulateModels(records, time.Time{}, time.Time{})
	sort.Slice(models, func(i, j int) bool {
		if c := models[i].revenue.Cmp(models[j].revenue); c != 0 {
			return c > 0
		}
		return models[i].carID.String() < models[j].carID.String()
	})

	models = limitTo(models, limit)
	out := make([]ModelRevenue, 0, len(models))
	for _, m := range models {
		out = append(out, ModelRevenue{
			ModelID:    m.carID,
			Model:      m.carName,
			AgencyID:   m.supplierID,
			AgencyName: m.supplierName,
			Revenue:    m.revenue.InexactFloat64(),
			Bookings:   m.bookings,
		})
	}
	return out
}

// OccupancyByModel ranks cars by the fraction of the window they were booked.
func OccupancyByModel(records []BookingRecord, rangeStart, rangeEnd time.Time, limit int) []ModelOccupancy {
	windowDays := InclusiveDaysBetween(rangeStart, rangeEnd)
	models := accumulateModels(records, rangeStart, rangeEnd)

	out := make([]ModelOccupancy, 0, len(models))
	for _, m := range models {
		rate := 0.0
		if windowDays > 0 {
			rate = clampUnit(float64(m.bookedDays) / float64(windowDays))
		}
		out = append(out, ModelOccupancy{
			ModelID:       m.carID,
			Model:         m.carName,
			AgencyID:      m.supplierID,
			AgencyName:    m.supplierName,
			BookedDays:    m.bookedDays,
			OccupancyRate: rate,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OccupancyRate != out[j].OccupancyRate {
			return out[i].OccupancyRate > out[j].OccupancyRate
		}
		return out[i].ModelID.String() < out[j].ModelID.String()
	})
	return limitTo(out, limit)
}

// AverageDurationByAgency averages accepted rental length per supplier. Names
// come from names when present, otherwise from the bookings themselves.
func AverageDurationByAgency(records []BookingRecord, names map[uuid.UUID]string) []AgencyDuration {
	type agencyAcc struct {
		name     string
		days     int
		bookings int
	}

	byAgency := make(map[uuid.UUID]*agencyAcc)
	for _, b := range records {
		if !b.Status.IsAccepted() {
			continue
		}
		acc, ok := byAgency[b.SupplierID]
		if !ok {
			acc = &agencyAcc{}
			byAgency[b.SupplierID] = acc
		}
		acc.name = b.SupplierName
		acc.days += InclusiveDaysBetween(b.From, b.To)
		acc.bookings++
	}

	out := make([]AgencyDuration, 0, len(byAgency))
	for id, acc := range byAgency {
		name := acc.name
		if n, ok := names[id]; ok && n != "" {
			name = n
		}
		out = append(out, AgencyDuration{
			AgencyID:        id,
			AgencyName:      name,
			AverageDuration: float64(acc.days) / float64(acc.bookings),
			Bookings:        acc.bookings,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageDuration != out[j].AverageDuration {
			return out[i].AverageDuration > out[j].AverageDuration
		}
		return out[i].AgencyID.String() < out[j].AgencyID.String()
	})
	return out
}

// DistinctSuppliers returns the supplier ids present in records, sorted.
func DistinctSuppliers(records []BookingRecord) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, b := range records {
		if _, ok := seen[b.SupplierID]; ok {
			continue
		}
		seen[b.SupplierID] = struct{}{}
		ids = append(ids, b.SupplierID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
