package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2024-04", MonthKey(date(2024, 4, 30)))

	loc := time.FixedZone("UTC-5", -5*3600)
	// 2024-04-30 22:00 in UTC-5 is already May in UTC
	assert.Equal(t, "2024-05", MonthKey(time.Date(2024, 4, 30, 22, 0, 0, 0, loc)))
}

func TestISOWeekKey(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"mid year", date(2024, 6, 12), "2024-W24"},
		{"jan 1 2021 belongs to 2020", date(2021, 1, 1), "2020-W53"},
		{"dec 30 2024 belongs to 2025", date(2024, 12, 30), "2025-W01"},
		{"first thursday week", date(2024, 1, 4), "2024-W01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ISOWeekKey(tt.t))
		})
	}
}

func TestGroupByKey_SortedAndLocal(t *testing.T) {
	words := []string{"pear", "apple", "plum", "avocado", "banana"}
	count := func(acc int, _ string) int { return acc + 1 }
	first := func(s string) string { return s[:1] }

	groups := GroupByKey(words, first, count)
	require.Len(t, groups, 3)
	assert.Equal(t, []Group[int]{{"a", 2}, {"b", 1}, {"p", 2}}, groups)

	// no state leaks between calls
	assert.Equal(t, groups, GroupByKey(words, first, count))
}

func TestMonthlyRevenue(t *testing.T) {
	records := []BookingRecord{
		booking(StatusPaid, 200, date(2024, 4, 3), date(2024, 4, 5)),
		booking(StatusDeposit, 50, date(2024, 4, 20), date(2024, 4, 22)),
		booking(StatusReserved, 100, date(2024, 5, 1), date(2024, 5, 2)),
		booking(StatusCancelled, 999, date(2024, 4, 10), date(2024, 4, 12)),
		booking(StatusPending, 999, date(2024, 5, 10), date(2024, 5, 12)),
	}

	assert.Equal(t, []PeriodRevenue{
		{Period: "2024-04", Revenue: 250, Bookings: 2},
		{Period: "2024-05", Revenue: 100, Bookings: 1},
	}, MonthlyRevenue(records, date(2024, 4, 1), date(2024, 5, 31)))
}

func TestMonthlyRevenue_EarlyPickupLandsInFirstMonth(t *testing.T) {
	records := []BookingRecord{
		booking(StatusPaid, 400, date(2023, 12, 30), date(2024, 1, 2)),
		booking(StatusPaid, 100, date(2024, 2, 10), date(2024, 2, 12)),
	}

	assert.Equal(t, []PeriodRevenue{
		{Period: "2024-01", Revenue: 400, Bookings: 1},
		{Period: "2024-02", Revenue: 100, Bookings: 1},
	}, MonthlyRevenue(records, date(2024, 1, 1), date(2024, 6, 30)))
}

func TestWeeklyTrend(t *testing.T) {
	records := []BookingRecord{
		booking(StatusPaid, 10.1, date(2024, 1, 1), date(2024, 1, 2)),
		booking(StatusPaid, 20.2, date(2024, 1, 7), date(2024, 1, 8)),
		booking(StatusPaid, 5, date(2024, 1, 8), date(2024, 1, 9)),
	}

	assert.Equal(t, []WeeklyRevenue{
		{Week: "2024-W01", Revenue: 30.3, Bookings: 2},
		{Week: "2024-W02", Revenue: 5, Bookings: 1},
	}, WeeklyTrend(records, date(2024, 1, 1), date(2024, 1, 14)))
}

func TestBuildRevenueSeries_BadPrices(t *testing.T) {
	records := []BookingRecord{
		booking(StatusPaid, math.NaN(), date(2024, 1, 1), date(2024, 1, 2)),
		booking(StatusPaid, math.Inf(1), date(2024, 1, 1), date(2024, 1, 2)),
		booking(StatusPaid, -20, date(2024, 1, 1), date(2024, 1, 2)),
		booking(StatusPaid, 30, date(2024, 1, 1), date(2024, 1, 2)),
	}

	series := MonthlyRevenue(records, date(2024, 1, 1), date(2024, 1, 31))
	require.Len(t, series, 1)
	assert.Equal(t, 30.0, series[0].Revenue)
	assert.Equal(t, 4, series[0].Bookings)
}

func TestBuildRevenueSeries_Empty(t *testing.T) {
	assert.Empty(t, MonthlyRevenue(nil, date(2024, 1, 1), date(2024, 1, 31)))
	assert.Empty(t, WeeklyTrend([]BookingRecord{}, date(2024, 1, 1), date(2024, 1, 31)))
}

func TestStatusBreakdown(t *testing.T) {
	records := []BookingRecord{
		booking(StatusCancelled, 40, date(2024, 1, 1), date(2024, 1, 2)),
		booking(StatusPaid, 100, date(2024, 1, 1), date(2024, 1, 2)),
		booking(StatusPaid, 50, date(2024, 1, 1), date(2024, 1, 2)),
		booking("", 10, date(2024, 1, 1), date(2024, 1, 2)),
		booking("refunded", 5, date(2024, 1, 1), date(2024, 1, 2)),
		booking(StatusVoid, 0, date(2024, 1, 1), date(2024, 1, 2)),
	}

	assert.Equal(t, []StatusCount{
		{Status: StatusVoid, Count: 1, TotalPrice: 0},
		{Status: StatusPending, Count: 2, TotalPrice: 15},
		{Status: StatusPaid, Count: 2, TotalPrice: 150},
		{Status: StatusCancelled, Count: 1, TotalPrice: 40},
	}, StatusBreakdown(records))
}

func TestViewsOverTime(t *testing.T) {
	views := []ViewRecord{
		{Date: time.Date(2024, 3, 2, 23, 0, 0, 0, time.UTC), PaidView: true},
		{Date: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC), PaidView: true},
		{Date: time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)},
	}

	assert.Equal(t, []ViewsPoint{
		{Date: "2024-03-01", Organic: 2, Paid: 1, Total: 3},
		{Date: "2024-03-02", Organic: 0, Paid: 1, Total: 1},
	}, ViewsOverTime(views))
	assert.Empty(t, ViewsOverTime(nil))
}
