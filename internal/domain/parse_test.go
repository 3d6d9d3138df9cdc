package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock12(t *testing.T) {
	cases := []struct {
		tod      string
		mer      Meridiem
		wantH    int
		wantM    int
		wantErr  bool
	}{
		{"08:30", AM, 8, 30, false},
		{"08:30", PM, 20, 30, false},
		{"12:00", AM, 0, 0, false},   // midnight
		{"12:15", PM, 12, 15, false}, // noon
		{"01:05", AM, 1, 5, false},
		{"11:59", PM, 23, 59, false},
		{"00:30", AM, 0, 0, true}, // hour 0 not valid on a 12h clock
		{"13:00", PM, 0, 0, true},
		{"08:60", AM, 0, 0, true},
		{"0830", AM, 0, 0, true},
		{"08:30", "XM", 0, 0, true},
	}
	for _, c := range cases {
		h, m, err := ParseClock12(c.tod, c.mer)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseClock12(%q, %q): expected error", c.tod, c.mer)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock12(%q, %q): %v", c.tod, c.mer, err)
			continue
		}
		if h != c.wantH || m != c.wantM {
			t.Errorf("ParseClock12(%q, %q) = %d:%d, want %d:%d", c.tod, c.mer, h, m, c.wantH, c.wantM)
		}
	}
}

func TestParseDuration(t *testing.T) {
	const day = 24 * time.Hour
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"2 days", 2 * day},
		{"1 day", day},
		{"1 week", 7 * day},
		{"3 weeks", 21 * day},
		{"1 month", 30 * day},
		{"2 months", 60 * day},
		{"1 year", 365 * day},
	}
	for _, c := range cases {
		got, err := ParseDuration(c.in)
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "days", "0 days", "two weeks", "5 fortnights"} {
		if _, err := ParseDuration(bad); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("ParseDuration(%q): expected ErrInvalidDuration, got %v", bad, err)
		}
	}
}

func TestParseFrequencyAndMeridiem(t *testing.T) {
	if f, err := ParseFrequency(" Daily "); err != nil || f != FrequencyDaily {
		t.Fatalf("ParseFrequency daily: %v %v", f, err)
	}
	if _, err := ParseFrequency("hourly"); !errors.Is(err, ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
	if m, err := ParseMeridiem("pm"); err != nil || m != PM {
		t.Fatalf("ParseMeridiem pm: %v %v", m, err)
	}
	if _, err := ParseMeridiem("noon"); !errors.Is(err, ErrInvalidMeridiem) {
		t.Fatalf("expected ErrInvalidMeridiem, got %v", err)
	}
}

func TestMedicationExpired(t *testing.T) {
	now := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	med := Medication{
		PrescribedAt: now.Add(-10 * 24 * time.Hour),
		Duration:     "1 week",
	}
	if !med.Expired(now) {
		t.Fatal("10 days into a 1-week prescription should be expired")
	}
	med.Duration = "2 weeks"
	if med.Expired(now) {
		t.Fatal("10 days into a 2-week prescription should not be expired")
	}
	med.Duration = "not a duration"
	if med.Expired(now) {
		t.Fatal("unparseable duration must never expire a medication")
	}
}
