package store

import (
	"database/sql"
	"testing"
	"time"
)

func TestDecodeTime_RFC3339(t *testing.T) {
	got, err := decodeTime("2026-01-17T14:18:40Z")
	if err != nil {
		t.Fatalf("decodeTime: %v", err)
	}
	want := time.Date(2026, time.January, 17, 14, 18, 40, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %v, got %v", want, got)
	}

	// offset form normalizes to UTC
	got, err = decodeTime("2026-01-17T19:48:40+05:30")
	if err != nil {
		t.Fatalf("decodeTime: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("offset form: want %v, got %v", want, got)
	}
}

func TestDecodeTime_LegacyNaiveIsUTC(t *testing.T) {
	// Rows migrated from the old system carry no offset; they are UTC by
	// definition, never the user's zone.
	for _, s := range []string{
		"2026-01-17 14:18:40",
		"2026-01-17 14:18:40.123456",
		"2026-01-17T14:18:40",
	} {
		got, err := decodeTime(s)
		if err != nil {
			t.Fatalf("decodeTime(%q): %v", s, err)
		}
		if got.Location() != time.UTC {
			t.Fatalf("decodeTime(%q): not UTC: %v", s, got)
		}
		if got.Hour() != 14 || got.Minute() != 18 {
			t.Fatalf("decodeTime(%q): wrong wall clock: %v", s, got)
		}
	}
}

func TestDecodeTime_Garbage(t *testing.T) {
	if _, err := decodeTime("yesterday-ish"); err == nil {
		t.Fatal("expected error")
	}
}

func TestEncodeDecodeNullTime(t *testing.T) {
	if ns := encodeNullTime(nil); ns.Valid {
		t.Fatal("nil time must encode as NULL")
	}
	now := time.Date(2026, time.March, 3, 6, 7, 8, 0, time.UTC)
	ns := encodeNullTime(&now)
	if !ns.Valid {
		t.Fatal("non-nil time must encode as valid")
	}
	back, err := decodeNullTime(ns)
	if err != nil || back == nil || !back.Equal(now) {
		t.Fatalf("round trip: %v %v", back, err)
	}
	if got, err := decodeNullTime(sql.NullString{}); err != nil || got != nil {
		t.Fatalf("NULL decodes to nil: %v %v", got, err)
	}
}
