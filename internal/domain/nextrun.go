package domain

import "time"

// NextRun computes the next firing instant for a reminder, working in loc
// (the owner's zone). The candidate is built on nowUTC's calendar date in loc
// at the reminder's time of day; if that instant is not in the future the
// candidate advances by one cadence step. Monthly advances by a fixed 30 days,
// not a calendar month. The result is always strictly after nowUTC.
func NextRun(timeOfDay string, meridiem Meridiem, freq Frequency, nowUTC time.Time, loc *time.Location) (time.Time, error) {
	hour, minute, err := ParseClock12(timeOfDay, meridiem)
	if err != nil {
		return time.Time{}, err
	}

	localNow := nowUTC.In(loc)
	candidate := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), hour, minute, 0, 0, loc)
	if !candidate.After(nowUTC) {
		candidate = candidate.Add(cadenceStep(freq))
	}
	return candidate.UTC(), nil
}

// Advance moves an instant forward by one cadence step.
func Advance(t time.Time, freq Frequency) time.Time {
	return t.Add(cadenceStep(freq))
}

func cadenceStep(freq Frequency) time.Duration {
	const day = 24 * time.Hour
	switch freq {
	case FrequencyWeekly:
		return 7 * day
	case FrequencyMonthly:
		return 30 * day
	default:
		return day
	}
}
