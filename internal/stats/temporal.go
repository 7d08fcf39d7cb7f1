package stats

import "time"

const day = 24 * time.Hour

// InclusiveDaysBetween counts the days spanned by [start, end] including both
// endpoints. Inverted intervals count as zero days.
func InclusiveDaysBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start)/day) + 1
}

// ClampTime bounds value to [low, high].
func ClampTime(value, low, high time.Time) time.Time {
	if value.Before(low) {
		return low
	}
	if value.After(high) {
		return high
	}
	return value
}

// BookedDaysInRange returns how many inclusive days of the booking fall
// inside the window [rangeStart, rangeEnd].
func BookedDaysInRange(b BookingRecord, rangeStart, rangeEnd time.Time) int {
	if rangeEnd.Before(rangeStart) {
		return 0
	}
	start := ClampTime(b.From, rangeStart, rangeEnd)
	end := ClampTime(b.To, rangeStart, rangeEnd)
	if end.Before(start) {
		return 0
	}
	return InclusiveDaysBetween(start, end)
}

// StartedWithin keeps the bookings whose pickup falls inside [start, end].
func StartedWithin(records []BookingRecord, start, end time.Time) []BookingRecord {
	out := make([]BookingRecord, 0, len(records))
	for _, b := range records {
		if !b.From.Before(start) && !b.From.After(end) {
			out = append(out, b)
		}
	}
	return out
}

// leadTimeDays is the whole number of days between reservation and pickup,
// never negative.
func leadTimeDays(createdAt, from time.Time) int {
	if !from.After(createdAt) {
		return 0
	}
	return int(from.Sub(createdAt) / day)
}

// YearBounds returns the first and last instant (millisecond precision) of the
// calendar year containing ref, in ref's location.
func YearBounds(ref time.Time) (time.Time, time.Time) {
	return yearBounds(ref.Year(), ref.Location())
}

// PreviousYearBounds returns the bounds of the calendar year before ref's.
func PreviousYearBounds(ref time.Time) (time.Time, time.Time) {
	return yearBounds(ref.Year()-1, ref.Location())
}

func yearBounds(year int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, time.December, 31, 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}
