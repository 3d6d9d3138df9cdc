package domain

import (
	"testing"
	"time"
)

// helper: build a time in given tz and return its UTC
func mustLocalUTC(t *testing.T, tz string, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return time.Date(y, m, d, hh, mm, 0, 0, loc).UTC()
}

func mustLoc(t *testing.T, tz string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return loc
}

func TestNextRun_TodayStillAhead(t *testing.T) {
	loc := mustLoc(t, "Asia/Kolkata")
	// 07:00 local, reminder at 08:30 AM → today 08:30 local
	now := mustLocalUTC(t, "Asia/Kolkata", 2026, time.January, 17, 7, 0)
	next, err := NextRun("08:30", AM, FrequencyDaily, now, loc)
	if err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	want := mustLocalUTC(t, "Asia/Kolkata", 2026, time.January, 17, 8, 30)
	if !next.Equal(want) {
		t.Fatalf("want %v, got %v", want, next)
	}
}

func TestNextRun_DailyRollsToTomorrow(t *testing.T) {
	loc := mustLoc(t, "Asia/Kolkata")
	// 09:00 local, reminder at 08:30 AM → tomorrow 08:30 local
	now := mustLocalUTC(t, "Asia/Kolkata", 2026, time.January, 17, 9, 0)
	next, err := NextRun("08:30", AM, FrequencyDaily, now, loc)
	if err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	want := mustLocalUTC(t, "Asia/Kolkata", 2026, time.January, 18, 8, 30)
	if !next.Equal(want) {
		t.Fatalf("want %v, got %v", want, next)
	}
}

func TestNextRun_WeeklyAndMonthlySteps(t *testing.T) {
	loc := mustLoc(t, "UTC")
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	weekly, err := NextRun("09:00", AM, FrequencyWeekly, now, loc)
	if err != nil {
		t.Fatalf("NextRun weekly: %v", err)
	}
	if want := now.Add(-3*time.Hour + 7*24*time.Hour); !weekly.Equal(want) {
		t.Fatalf("weekly: want %v, got %v", want, weekly)
	}

	monthly, err := NextRun("09:00", AM, FrequencyMonthly, now, loc)
	if err != nil {
		t.Fatalf("NextRun monthly: %v", err)
	}
	// fixed 30-day step
	if want := now.Add(-3*time.Hour + 30*24*time.Hour); !monthly.Equal(want) {
		t.Fatalf("monthly: want %v, got %v", want, monthly)
	}
}

func TestNextRun_AlwaysStrictlyAfterNow(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	freqs := []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly}
	times := []struct {
		tod string
		mer Meridiem
	}{
		{"12:00", AM}, {"12:00", PM}, {"01:15", AM}, {"11:59", PM}, {"06:30", AM},
	}
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		for _, f := range freqs {
			for _, tt := range times {
				next, err := NextRun(tt.tod, tt.mer, f, now, loc)
				if err != nil {
					t.Fatalf("NextRun(%s %s %s): %v", tt.tod, tt.mer, f, err)
				}
				if !next.After(now) {
					t.Fatalf("NextRun(%s %s %s) = %v not after %v", tt.tod, tt.mer, f, next, now)
				}
			}
		}
		now = now.Add(97 * time.Minute)
	}
}

func TestNextRun_ExactlyNowRollsForward(t *testing.T) {
	loc := mustLoc(t, "UTC")
	now := time.Date(2026, time.April, 2, 8, 30, 0, 0, time.UTC)
	next, err := NextRun("08:30", AM, FrequencyDaily, now, loc)
	if err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	if want := now.Add(24 * time.Hour); !next.Equal(want) {
		t.Fatalf("want %v, got %v", want, next)
	}
}

func TestNextRun_RejectsMalformedInput(t *testing.T) {
	loc := mustLoc(t, "UTC")
	now := time.Now().UTC()
	if _, err := NextRun("8h30", AM, FrequencyDaily, now, loc); err == nil {
		t.Fatal("expected error for malformed time of day")
	}
	if _, err := NextRun("08:30", "am?", FrequencyDaily, now, loc); err == nil {
		t.Fatal("expected error for malformed meridiem")
	}
}
