// Package recurrence implements the pure calendar math for recurring
// transactions: the next-occurrence calculator and the bounded
// date-sequence generator. Everything here is side-effect free and works
// at whole-day granularity in UTC.
package recurrence

import (
	"time"

	"github.com/nordvik/treasury-go/internal/domain"
)

// MaxOccurrences caps one sequence regardless of bounds, so a malformed
// template (e.g. daily with a multi-year horizon) cannot produce
// unbounded work.
const MaxOccurrences = 100

// DefaultHorizonMonths is the fallback horizon when the caller supplies
// neither an end date nor a horizon.
const DefaultHorizonMonths = 12

// Day truncates t to midnight UTC. All comparisons in this package are
// calendar-day comparisons.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func clampToDay(year int, month time.Month, day int) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// addMonthsClamped moves to the first of the month before adding, then
// re-applies the anchor day clamped to the target month's length.
// Adding a month directly to a day-31 date overflows into the following
// month on short months (Jan 31 + 1 month would become Mar 3).
func addMonthsClamped(t time.Time, months, anchorDay int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	target := first.AddDate(0, months, 0)
	return clampToDay(target.Year(), target.Month(), anchorDay)
}

// NextOccurrence computes the single next occurrence date after current
// for the given frequency. anchorDay is the day-of-month anchor for
// monthly and coarser frequencies; when zero it defaults to the
// day-of-month of current. Always returns a date strictly after current.
func NextOccurrence(current time.Time, freq domain.Frequency, anchorDay int) time.Time {
	current = Day(current)
	if anchorDay <= 0 {
		anchorDay = current.Day()
	}

	switch freq {
	case domain.FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	case domain.FrequencyBiweekly:
		return current.AddDate(0, 0, 14)
	case domain.FrequencyMonthly:
		return addMonthsClamped(current, 1, anchorDay)
	case domain.FrequencyQuarterly:
		return addMonthsClamped(current, 3, anchorDay)
	case domain.FrequencyYearly:
		return clampToDay(current.Year()+1, current.Month(), anchorDay)
	default:
		// Daily, and the safe fallback for anything unrecognized.
		return current.AddDate(0, 0, 1)
	}
}

// OccurrenceDates produces the ordered, finite sequence of occurrence
// dates for a template.
//
//   - The effective upper bound is min(end, horizon); an explicit end
//     date never extends past the horizon. A zero horizon defaults to
//     today + 12 months.
//   - For monthly-or-coarser frequencies the start date is first clamped
//     to its anchor day within its own month.
//   - For weekly/biweekly frequencies with a weekday anchor, the start
//     date is advanced to the first matching weekday.
//   - Dates before today are dropped: a template that lagged behind due
//     to pause/resume must not backfill already-elapsed dates.
//   - At most MaxOccurrences dates are emitted.
//
// The result is strictly ascending with no duplicates, and empty when
// start is past the effective upper bound.
func OccurrenceDates(start time.Time, end *time.Time, freq domain.Frequency, anchorDay int, anchorWeekday *int, today, horizon time.Time) []time.Time {
	today = Day(today)
	if horizon.IsZero() {
		horizon = today.AddDate(0, DefaultHorizonMonths, 0)
	}
	upper := Day(horizon)
	if end != nil {
		if e := Day(*end); e.Before(upper) {
			upper = e
		}
	}

	cur := Day(start)
	if freq.NeedsDayOfMonth() {
		day := anchorDay
		if day <= 0 {
			day = cur.Day()
		}
		cur = clampToDay(cur.Year(), cur.Month(), day)
	}
	if freq.NeedsDayOfWeek() && anchorWeekday != nil {
		// Legacy rows may carry a 1-7 weekday (7 = Sunday); fold any
		// out-of-range anchor into 0-6 so alignment always terminates.
		want := time.Weekday(((*anchorWeekday % 7) + 7) % 7)
		for cur.Weekday() != want {
			cur = cur.AddDate(0, 0, 1)
		}
	}

	var dates []time.Time
	for len(dates) < MaxOccurrences && !cur.After(upper) {
		if !cur.Before(today) {
			dates = append(dates, cur)
		}
		cur = NextOccurrence(cur, freq, anchorDay)
	}
	return dates
}
