package recurrence_test

import (
	"testing"
	"time"

	"github.com/nordvik/treasury-go/internal/domain"
	"github.com/nordvik/treasury-go/internal/recurrence"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence_MonthEndClamping(t *testing.T) {
	tests := []struct {
		name    string
		current time.Time
		freq    domain.Frequency
		anchor  int
		want    time.Time
	}{
		{"jan 31 leap year", date(2024, time.January, 31), domain.FrequencyMonthly, 31, date(2024, time.February, 29)},
		{"jan 31 non-leap year", date(2025, time.January, 31), domain.FrequencyMonthly, 31, date(2025, time.February, 28)},
		{"feb 28 back to anchor 31", date(2025, time.February, 28), domain.FrequencyMonthly, 31, date(2025, time.March, 31)},
		{"quarterly jan 31", date(2025, time.January, 31), domain.FrequencyQuarterly, 31, date(2025, time.April, 30)},
		{"yearly feb 29 to non-leap", date(2024, time.February, 29), domain.FrequencyYearly, 29, date(2025, time.February, 28)},
		{"monthly mid-month", date(2025, time.March, 15), domain.FrequencyMonthly, 15, date(2025, time.April, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recurrence.NextOccurrence(tt.current, tt.freq, tt.anchor)
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%s) = %s, want %s",
					tt.current.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestNextOccurrence_SimpleFrequencies(t *testing.T) {
	cur := date(2025, time.June, 10)

	if got := recurrence.NextOccurrence(cur, domain.FrequencyDaily, 0); !got.Equal(date(2025, time.June, 11)) {
		t.Errorf("daily: got %s", got.Format("2006-01-02"))
	}
	if got := recurrence.NextOccurrence(cur, domain.FrequencyWeekly, 0); !got.Equal(date(2025, time.June, 17)) {
		t.Errorf("weekly: got %s", got.Format("2006-01-02"))
	}
	if got := recurrence.NextOccurrence(cur, domain.FrequencyBiweekly, 0); !got.Equal(date(2025, time.June, 24)) {
		t.Errorf("biweekly: got %s", got.Format("2006-01-02"))
	}
}

func TestNextOccurrence_AnchorDefaultsToCurrentDay(t *testing.T) {
	got := recurrence.NextOccurrence(date(2025, time.January, 31), domain.FrequencyMonthly, 0)
	if !got.Equal(date(2025, time.February, 28)) {
		t.Errorf("expected 2025-02-28, got %s", got.Format("2006-01-02"))
	}
}

func TestNextOccurrence_StrictlyIncreasing(t *testing.T) {
	freqs := []domain.Frequency{
		domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyBiweekly,
		domain.FrequencyMonthly, domain.FrequencyQuarterly, domain.FrequencyYearly,
	}

	for _, freq := range freqs {
		cur := date(2024, time.January, 31)
		for i := 0; i < 50; i++ {
			next := recurrence.NextOccurrence(cur, freq, 31)
			if !next.After(cur) {
				t.Fatalf("%s: sequence not strictly increasing at step %d: %s -> %s",
					freq, i, cur.Format("2006-01-02"), next.Format("2006-01-02"))
			}
			cur = next
		}
	}
}

func TestOccurrenceDates_MonthlyAnchor(t *testing.T) {
	start := date(2025, time.January, 10)
	today := date(2025, time.January, 1)
	horizon := start.AddDate(0, 3, 0)

	got := recurrence.OccurrenceDates(start, nil, domain.FrequencyMonthly, 15, nil, today, horizon)

	want := []time.Time{
		date(2025, time.January, 15),
		date(2025, time.February, 15),
		date(2025, time.March, 15),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %s, want %s", i, got[i].Format("2006-01-02"), want[i].Format("2006-01-02"))
		}
	}
}

func TestOccurrenceDates_DropsPastDates(t *testing.T) {
	start := date(2025, time.January, 1)
	today := date(2025, time.March, 20)
	horizon := date(2025, time.June, 1)

	got := recurrence.OccurrenceDates(start, nil, domain.FrequencyMonthly, 1, nil, today, horizon)

	for _, d := range got {
		if d.Before(today) {
			t.Errorf("emitted past date %s (today=%s)", d.Format("2006-01-02"), today.Format("2006-01-02"))
		}
	}
	if len(got) != 3 { // Apr 1, May 1, Jun 1
		t.Errorf("expected 3 future dates, got %d: %v", len(got), got)
	}
}

func TestOccurrenceDates_HardCap(t *testing.T) {
	start := date(2025, time.January, 1)
	today := start
	horizon := start.AddDate(5, 0, 0) // daily over five years

	got := recurrence.OccurrenceDates(start, nil, domain.FrequencyDaily, 0, nil, today, horizon)

	if len(got) != recurrence.MaxOccurrences {
		t.Errorf("expected cap of %d dates, got %d", recurrence.MaxOccurrences, len(got))
	}
}

func TestOccurrenceDates_EndDateNeverExtendsHorizon(t *testing.T) {
	start := date(2025, time.January, 15)
	today := start
	horizon := date(2025, time.March, 31)
	end := date(2026, time.December, 31)

	got := recurrence.OccurrenceDates(start, &end, domain.FrequencyMonthly, 15, nil, today, horizon)

	if len(got) != 3 { // Jan 15, Feb 15, Mar 15
		t.Fatalf("expected 3 dates bounded by horizon, got %d: %v", len(got), got)
	}
	last := got[len(got)-1]
	if last.After(horizon) {
		t.Errorf("last date %s exceeds horizon %s", last.Format("2006-01-02"), horizon.Format("2006-01-02"))
	}
}

func TestOccurrenceDates_EndDateTighterThanHorizon(t *testing.T) {
	start := date(2025, time.January, 15)
	today := start
	end := date(2025, time.February, 20)
	horizon := date(2025, time.December, 31)

	got := recurrence.OccurrenceDates(start, &end, domain.FrequencyMonthly, 15, nil, today, horizon)

	if len(got) != 2 { // Jan 15, Feb 15
		t.Errorf("expected 2 dates bounded by end date, got %d: %v", len(got), got)
	}
}

func TestOccurrenceDates_EmptyWhenStartPastBound(t *testing.T) {
	start := date(2026, time.June, 1)
	today := date(2025, time.January, 1)
	horizon := date(2025, time.December, 31)

	got := recurrence.OccurrenceDates(start, nil, domain.FrequencyMonthly, 1, nil, today, horizon)
	if len(got) != 0 {
		t.Errorf("expected empty sequence, got %v", got)
	}
}

func TestOccurrenceDates_DefaultHorizon(t *testing.T) {
	start := date(2025, time.January, 15)
	today := start

	got := recurrence.OccurrenceDates(start, nil, domain.FrequencyMonthly, 15, nil, today, time.Time{})

	if len(got) != 13 { // Jan 15 2025 .. Jan 15 2026 inclusive
		t.Errorf("expected 13 dates over the 12-month default horizon, got %d", len(got))
	}
}

func TestOccurrenceDates_WeeklyAnchorAlignment(t *testing.T) {
	start := date(2025, time.June, 10) // a Tuesday
	today := start
	horizon := start.AddDate(0, 1, 0)
	friday := 5

	got := recurrence.OccurrenceDates(start, nil, domain.FrequencyWeekly, 0, &friday, today, horizon)

	if len(got) == 0 {
		t.Fatal("expected at least one date")
	}
	for _, d := range got {
		if d.Weekday() != time.Friday {
			t.Errorf("date %s is %s, want Friday", d.Format("2006-01-02"), d.Weekday())
		}
	}
	if !got[0].Equal(date(2025, time.June, 13)) {
		t.Errorf("first occurrence = %s, want 2025-06-13", got[0].Format("2006-01-02"))
	}
}

func TestOccurrenceDates_OutOfRangeWeekdayAnchor(t *testing.T) {
	// Legacy rows carry 1-7 weekdays (7 = Sunday); the sequence must
	// still terminate and land on the folded weekday.
	start := date(2025, time.June, 10) // a Tuesday
	today := start
	horizon := start.AddDate(0, 1, 0)
	sunday := 7

	got := recurrence.OccurrenceDates(start, nil, domain.FrequencyWeekly, 0, &sunday, today, horizon)

	if len(got) == 0 {
		t.Fatal("expected at least one date")
	}
	for _, d := range got {
		if d.Weekday() != time.Sunday {
			t.Errorf("date %s is %s, want Sunday", d.Format("2006-01-02"), d.Weekday())
		}
	}
	if !got[0].Equal(date(2025, time.June, 15)) {
		t.Errorf("first occurrence = %s, want 2025-06-15", got[0].Format("2006-01-02"))
	}
}

func TestOccurrenceDates_StrictlyAscendingNoDuplicates(t *testing.T) {
	start := date(2024, time.January, 31)
	today := start
	horizon := start.AddDate(3, 0, 0)

	got := recurrence.OccurrenceDates(start, nil, domain.FrequencyMonthly, 31, nil, today, horizon)

	for i := 1; i < len(got); i++ {
		if !got[i].After(got[i-1]) {
			t.Fatalf("sequence not strictly ascending at %d: %s -> %s",
				i, got[i-1].Format("2006-01-02"), got[i].Format("2006-01-02"))
		}
	}
}
