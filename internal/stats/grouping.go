package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// KeyFunc derives a bucket key from a timestamp
type KeyFunc func(t time.Time) string

// MonthKey buckets by calendar month in UTC ("2006-01").
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ISOWeekKey buckets by ISO-8601 week in UTC ("2006-W01").
func ISOWeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Group is one key together with its accumulated value
type Group[A any] struct {
	Key       string
	Aggregate A
}

// GroupByKey folds records into per-key accumulators and returns the groups
// sorted by key ascending. The accumulator map is local to the call.
func GroupByKey[R any, A any](records []R, keyFn func(R) string, aggregate func(acc A, record R) A) []Group[A] {
	acc := make(map[string]A)
	for _, r := range records {
		k := keyFn(r)
		acc[k] = aggregate(acc[k], r)
	}

	groups := make([]Group[A], 0, len(acc))
	for k, v := range acc {
		groups = append(groups, Group[A]{Key: k, Aggregate: v})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// revenueBucket accumulates money exactly and converts once on output.
type revenueBucket struct {
	revenue  decimal.Decimal
	bookings int
}

func addRevenue(acc revenueBucket, b BookingRecord) revenueBucket {
	acc.revenue = acc.revenue.Add(decimal.NewFromFloat(sanitizePrice(b.Price)))
	acc.bookings++
	return acc
}

// sanitizePrice treats non-finite and negative prices as zero.
func sanitizePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

func acceptedOnly(records []BookingRecord) []BookingRecord {
	out := make([]BookingRecord, 0, len(records))
	for _, b := range records {
		if b.Status.IsAccepted() {
			out = append(out, b)
		}
	}
	return out
}

// BuildRevenueSeries groups accepted bookings by keyFn applied to their start
// date clamped into [start, end], so a booking picked up before the window
// lands in its first bucket. Buckets are ascending.
func BuildRevenueSeries(records []BookingRecord, start, end time.Time, keyFn KeyFunc) []PeriodRevenue {
	groups := GroupByKey(acceptedOnly(records), func(b BookingRecord) string {
		return keyFn(ClampTime(b.From, start, end))
	}, addRevenue)

	series := make([]PeriodRevenue, 0, len(groups))
	for _, g := range groups {
		series = append(series, PeriodRevenue{
			Period:   g.Key,
			Revenue:  g.Aggregate.revenue.InexactFloat64(),
			Bookings: g.Aggregate.bookings,
		})
	}
	return series
}

// MonthlyRevenue is BuildRevenueSeries keyed by calendar month.
func MonthlyRevenue(records []BookingRecord, start, end time.Time) []PeriodRevenue {
	return BuildRevenueSeries(records, start, end, MonthKey)
}

// WeeklyTrend is BuildRevenueSeries keyed by ISO week.
func WeeklyTrend(records []BookingRecord, start, end time.Time) []WeeklyRevenue {
	series := BuildRevenueSeries(records, start, end, ISOWeekKey)
	trend := make([]WeeklyRevenue, 0, len(series))
	for _, p := range series {
		trend = append(trend, WeeklyRevenue{Week: p.Period, Revenue: p.Revenue, Bookings: p.Bookings})
	}
	return trend
}

// StatusBreakdown counts bookings and sums their price per status. Missing or
// unknown statuses are reported as pending.
func StatusBreakdown(records []BookingRecord) []StatusCount {
	groups := GroupByKey(records, func(b BookingRecord) string {
		return string(b.Status.Normalize())
	}, addRevenue)

	byStatus := make(map[BookingStatus]revenueBucket, len(groups))
	for _, g := range groups {
		byStatus[BookingStatus(g.Key)] = g.Aggregate
	}

	breakdown := make([]StatusCount, 0, len(byStatus))
	for _, status := range allStatuses {
		bucket, ok := byStatus[status]
		if !ok {
			continue
		}
		breakdown = append(breakdown, StatusCount{
			Status:     status,
			Count:      bucket.bookings,
			TotalPrice: bucket.revenue.InexactFloat64(),
		})
	}
	return breakdown
}

// ViewsOverTime aggregates page views per UTC day, ascending.
func ViewsOverTime(views []ViewRecord) []ViewsPoint {
	groups := GroupByKey(views, func(v ViewRecord) string {
		return v.Date.UTC().Format("2006-01-02")
	}, func(acc ViewsPoint, v ViewRecord) ViewsPoint {
		if v.PaidView {
			acc.Paid++
		} else {
			acc.Organic++
		}
		acc.Total++
		return acc
	})

	points := make([]ViewsPoint, 0, len(groups))
	for _, g := range groups {
		p := g.Aggregate
		p.Date = g.Key
		points = append(points, p)
	}
	return points
}
