package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingCounts partitions a record set by status class
type BookingCounts struct {
	Total     int
	Accepted  int
	Cancelled int
}

// CountBookings tallies totals, accepted and cancelled bookings.
func CountBookings(records []BookingRecord) BookingCounts {
	c := BookingCounts{Total: len(records)}
	for _, b := range records {
		switch {
		case b.Status.IsAccepted():
			c.Accepted++
		case b.Status.IsCancelled():
			c.Cancelled++
		}
	}
	return c
}

// TotalRevenue sums the price of accepted bookings.
func TotalRevenue(records []BookingRecord) float64 {
	total := decimal.Zero
	for _, b := range records {
		if b.Status.IsAccepted() {
			total = total.Add(decimal.NewFromFloat(sanitizePrice(b.Price)))
		}
	}
	return total.InexactFloat64()
}

func percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// AcceptanceRate is accepted/total as a percentage.
func AcceptanceRate(accepted, total int) float64 {
	return percentage(accepted, total)
}

// CancellationRate is cancelled/total as a percentage.
func CancellationRate(cancelled, total int) float64 {
	return percentage(cancelled, total)
}

// ConversionRate is accepted bookings per view as a raw ratio.
func ConversionRate(accepted, totalViews int) float64 {
	if totalViews <= 0 {
		return 0
	}
	return float64(accepted) / float64(totalViews)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// OccupancyRate is the booked fraction of the fleet-days in the window,
// bounded to [0, 1].
func OccupancyRate(records []BookingRecord, totalCars int, rangeStart, rangeEnd time.Time) float64 {
	windowDays := InclusiveDaysBetween(rangeStart, rangeEnd)
	if totalCars <= 0 || windowDays == 0 {
		return 0
	}

	booked := 0
	for _, b := range records {
		if b.Status.IsAccepted() {
			booked += BookedDaysInRange(b, rangeStart, rangeEnd)
		}
	}
	return clampUnit(float64(booked) / float64(windowDays*totalCars))
}

// AverageDuration is the mean inclusive rental length of accepted bookings.
func AverageDuration(records []BookingRecord) float64 {
	days, n := 0, 0
	for _, b := range records {
		if !b.Status.IsAccepted() {
			continue
		}
		days += InclusiveDaysBetween(b.From, b.To)
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(days) / float64(n)
}

// AverageLeadTime is the mean number of days between reservation and pickup
// over accepted bookings that carry a creation date.
func AverageLeadTime(records []BookingRecord) float64 {
	days, n := 0, 0
	for _, b := range records {
		if !b.Status.IsAccepted() || b.CreatedAt == nil {
			continue
		}
		days += leadTimeDays(*b.CreatedAt, b.From)
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(days) / float64(n)
}

// RebookingRate is the share of distinct renters, over bookings of any
// status, who made more than one accepted booking. Guest bookings are ignored.
func RebookingRate(records []BookingRecord) float64 {
	accepted := make(map[uuid.UUID]int)
	for _, b := range records {
		if b.DriverID == nil {
			continue
		}
		n := accepted[*b.DriverID]
		if b.Status.IsAccepted() {
			n++
		}
		accepted[*b.DriverID] = n
	}
	if len(accepted) == 0 {
		return 0
	}

	repeat := 0
	for _, n := range accepted {
		if n > 1 {
			repeat++
		}
	}
	return clampUnit(float64(repeat) / float64(len(accepted)))
}

// CancellationByPaymentStatus splits cancelled bookings into those paid online
// (a payment intent exists) and deposit-only ones.
func CancellationByPaymentStatus(records []BookingRecord) PaymentCancellations {
	var pc PaymentCancellations
	for _, b := range records {
		if !b.Status.IsCancelled() {
			continue
		}
		if b.PaymentIntentID != nil {
			pc.Paid++
		} else {
			pc.Deposit++
		}
	}
	return pc
}

// AverageRevenuePerBooking divides revenue by accepted bookings.
func AverageRevenuePerBooking(revenue float64, accepted int) float64 {
	if accepted <= 0 {
		return 0
	}
	return decimal.NewFromFloat(revenue).Div(decimal.NewFromInt(int64(accepted))).InexactFloat64()
}
