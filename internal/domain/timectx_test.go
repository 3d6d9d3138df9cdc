package domain

import (
	"testing"
	"time"
)

func TestLoadUserLocation_Fallback(t *testing.T) {
	if got := LoadUserLocation("").String(); got != DefaultZone {
		t.Fatalf("empty tz: want %s, got %s", DefaultZone, got)
	}
	if got := LoadUserLocation("Not/AZone").String(); got != DefaultZone {
		t.Fatalf("bad tz: want %s, got %s", DefaultZone, got)
	}
	if got := LoadUserLocation("Europe/Moscow").String(); got != "Europe/Moscow" {
		t.Fatalf("valid tz: want Europe/Moscow, got %s", got)
	}
}

func TestLocalDate_CrossesMidnightPerZone(t *testing.T) {
	// 2026-01-17T20:00:00Z is Jan 17 in UTC but 01:30 on Jan 18 in Kolkata (UTC+05:30).
	instant := time.Date(2026, time.January, 17, 20, 0, 0, 0, time.UTC)

	utcDate := LocalDate(instant, time.UTC)
	if !utcDate.Equal(Date{2026, time.January, 17}) {
		t.Fatalf("utc date: got %+v", utcDate)
	}

	ist := LoadUserLocation("Asia/Kolkata")
	istDate := LocalDate(instant, ist)
	if !istDate.Equal(Date{2026, time.January, 18}) {
		t.Fatalf("ist date: got %+v", istDate)
	}
}

func TestSameLocalDay(t *testing.T) {
	ist := LoadUserLocation("Asia/Kolkata")

	// 14:18:40Z = 19:48:40 IST, 18:30Z = 00:00 IST next day.
	a := time.Date(2026, time.January, 17, 14, 18, 40, 0, time.UTC)
	b := time.Date(2026, time.January, 17, 14, 30, 0, 0, time.UTC)
	c := time.Date(2026, time.January, 17, 18, 35, 0, 0, time.UTC)

	if !SameLocalDay(a, b, ist) {
		t.Fatal("a and b share the IST calendar day")
	}
	if SameLocalDay(a, c, ist) {
		t.Fatal("c is past IST midnight, different day")
	}
	// The same pair read in UTC is still the same day.
	if !SameLocalDay(a, c, time.UTC) {
		t.Fatal("a and c share the UTC calendar day")
	}
}
