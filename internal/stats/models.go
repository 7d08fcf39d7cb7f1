package stats

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a reservation
type BookingStatus string

const (
	StatusVoid      BookingStatus = "void"
	StatusPending   BookingStatus = "pending"
	StatusDeposit   BookingStatus = "deposit"
	StatusPaid      BookingStatus = "paid"
	StatusReserved  BookingStatus = "reserved"
	StatusCancelled BookingStatus = "cancelled"
)

// allStatuses is the display order used by status breakdowns.
var allStatuses = [...]BookingStatus{
	StatusVoid,
	StatusPending,
	StatusDeposit,
	StatusPaid,
	StatusReserved,
	StatusCancelled,
}

// Normalize maps unknown or empty statuses to pending.
func (s BookingStatus) Normalize() BookingStatus {
	switch s {
	case StatusVoid, StatusPending, StatusDeposit, StatusPaid, StatusReserved, StatusCancelled:
		return s
	default:
		return StatusPending
	}
}

// IsAccepted reports whether the status counts as realized demand.
func (s BookingStatus) IsAccepted() bool {
	switch s.Normalize() {
	case StatusPaid, StatusDeposit, StatusReserved:
		return true
	}
	return false
}

// IsCancelled reports whether the status counts as lost demand.
func (s BookingStatus) IsCancelled() bool {
	switch s.Normalize() {
	case StatusCancelled, StatusVoid:
		return true
	}
	return false
}

// BookingRecord is a read-only snapshot of a reservation
type BookingRecord struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	Status          BookingStatus `json:"status" db:"status"`
	Price           float64       `json:"price" db:"price"`
	From            time.Time     `json:"from" db:"from_date"`
	To              time.Time     `json:"to" db:"to_date"`
	CreatedAt       *time.Time    `json:"createdAt,omitempty" db:"created_at"`
	SupplierID      uuid.UUID     `json:"supplierId" db:"supplier_id"`
	SupplierName    string        `json:"supplierName" db:"supplier_name"`
	CarID           uuid.UUID     `json:"carId" db:"car_id"`
	CarName         string        `json:"carName" db:"car_name"`
	DriverID        *uuid.UUID    `json:"driverId,omitempty" db:"driver_id"`
	PaymentIntentID *string       `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	SessionID       *string       `json:"sessionId,omitempty" db:"session_id"`
}

// ViewRecord is a single car page view
type ViewRecord struct {
	Date     time.Time `json:"date" db:"viewed_at"`
	PaidView bool      `json:"paidView" db:"paid_view"`
}

// Summary holds the headline KPIs shared by both reports
type Summary struct {
	TotalRevenue             float64 `json:"totalRevenue"`
	TotalBookings            int     `json:"totalBookings"`
	AcceptedBookings         int     `json:"acceptedBookings"`
	CancelledBookings        int     `json:"cancelledBookings"`
	AcceptanceRate           float64 `json:"acceptanceRate"`
	CancellationRate         float64 `json:"cancellationRate"`
	AverageRevenuePerBooking float64 `json:"averageRevenuePerBooking"`
	AverageDuration          float64 `json:"averageDuration"`
	OccupancyRate            float64 `json:"occupancyRate"`
	RebookingRate            float64 `json:"rebookingRate"`
	AverageLeadTime          float64 `json:"averageLeadTime"`
}

// AdminSummary extends Summary with platform-wide figures
type AdminSummary struct {
	Summary
	ActiveAgencies      int     `json:"activeAgencies"`
	CurrentYearRevenue  float64 `json:"currentYearRevenue"`
	PreviousYearRevenue float64 `json:"previousYearRevenue"`
	ConversionRate      float64 `json:"conversionRate"`
}

// StatusCount is one row of a status breakdown
type StatusCount struct {
	Status     BookingStatus `json:"status"`
	Count      int           `json:"count"`
	TotalPrice float64       `json:"totalPrice"`
}

// PeriodRevenue is one bucket of the monthly revenue series
type PeriodRevenue struct {
	Period   string  `json:"period"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}

// WeeklyRevenue is one bucket of the ISO-week revenue trend
type WeeklyRevenue struct {
	Week     string  `json:"week"`
	Revenue  float64 `json:"revenue"`
	Bookings int     `json:"bookings"`
}

// ViewsPoint aggregates page views for a single day
type ViewsPoint struct {
	Date    string `json:"date"`
	Organic int    `json:"organique"`
	Paid    int    `json:"paid"`
	Total   int    `json:"total"`
}

// ModelRevenue is the accepted revenue of one car model
type ModelRevenue struct {
	ModelID    uuid.UUID `json:"modelId"`
	Model      string    `json:"model"`
	AgencyID   uuid.UUID `json:"agencyId"`
	AgencyName string    `json:"agencyName"`
	Revenue    float64   `json:"revenue"`
	Bookings   int       `json:"bookings"`
}

// ModelOccupancy is the share of the window a car model was booked
type ModelOccupancy struct {
	ModelID       uuid.UUID `json:"modelId"`
	Model         string    `json:"model"`
	AgencyID      uuid.UUID `json:"agencyId"`
	AgencyName    string    `json:"agencyName"`
	BookedDays    int       `json:"bookedDays"`
	OccupancyRate float64   `json:"occupancyRate"`
}

// TopModel is a model ranked by accepted booking count
type TopModel struct {
	Model      string    `json:"model"`
	Bookings   int       `json:"bookings"`
	AgencyID   uuid.UUID `json:"agencyId"`
	AgencyName string    `json:"agencyName"`
	ModelID    uuid.UUID `json:"modelId"`
}

// PaymentCancellations splits cancelled bookings by how they were paid
type PaymentCancellations struct {
	Deposit int `json:"deposit"`
	Paid    int `json:"paid"`
}

// AgencyDuration is the average rental length of one agency
type AgencyDuration struct {
	AgencyID        uuid.UUID `json:"agencyId"`
	AgencyName      string    `json:"agencyName"`
	AverageDuration float64   `json:"averageDuration"`
	Bookings        int       `json:"bookings"`
}

// DateRange is the reporting window, both ends inclusive
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AgencyReport is the KPI report for a single rental agency
type AgencyReport struct {
	AgencyID                     uuid.UUID            `json:"agencyId"`
	Range                        DateRange            `json:"range"`
	GeneratedAt                  time.Time            `json:"generatedAt"`
	Summary                      Summary              `json:"summary"`
	StatusBreakdown              []StatusCount        `json:"statusBreakdown"`
	MonthlyRevenue               []PeriodRevenue      `json:"monthlyRevenue"`
	WeeklyTrend                  []WeeklyRevenue      `json:"weeklyTrend"`
	ViewsOverTime                []ViewsPoint         `json:"viewsOverTime"`
	RevenueByModel               []ModelRevenue       `json:"revenueByModel"`
	OccupancyByModel             []ModelOccupancy     `json:"occupancyByModel"`
	CancellationsByPaymentStatus PaymentCancellations `json:"cancellationsByPaymentStatus"`
	TopModels                    []TopModel           `json:"topModels"`
}

// AdminReport is the platform-wide KPI report
type AdminReport struct {
	Range                        DateRange            `json:"range"`
	GeneratedAt                  time.Time            `json:"generatedAt"`
	Summary                      AdminSummary         `json:"summary"`
	RevenueByStatus              []StatusCount        `json:"revenueByStatus"`
	MonthlyRevenue               []PeriodRevenue      `json:"monthlyRevenue"`
	WeeklyTrend                  []WeeklyRevenue      `json:"weeklyTrend"`
	ViewsOverTime                []ViewsPoint         `json:"viewsOverTime"`
	RevenueByModel               []ModelRevenue       `json:"revenueByModel"`
	OccupancyByModel             []ModelOccupancy     `json:"occupancyByModel"`
	CancellationsByPaymentStatus PaymentCancellations `json:"cancellationsByPaymentStatus"`
	TopModels                    []TopModel           `json:"topModels"`
	AverageDurationByAgency      []AgencyDuration     `json:"averageDurationByAgency"`
}
