package domain

import "time"

// DefaultZone is the fallback zone used when a user's timezone is empty or
// unknown to the tz database. Kept from the original deployment.
const DefaultZone = "Asia/Kolkata"

// Date is a calendar date in some timezone, with no time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Equal reports whether two dates name the same calendar day.
func (d Date) Equal(o Date) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day
}

// LoadUserLocation resolves an IANA zone id, falling back to DefaultZone for
// empty or unparseable ids. It never returns an error: every caller of the
// reset and scheduling paths must be able to proceed with some zone.
func LoadUserLocation(tzID string) *time.Location {
	if tzID != "" {
		if loc, err := time.LoadLocation(tzID); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation(DefaultZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalDate converts an instant to the calendar date in the given location.
func LocalDate(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// SameLocalDay reports whether two instants fall on the same calendar date
// when read in the given location.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	return LocalDate(a, loc).Equal(LocalDate(b, loc))
}
