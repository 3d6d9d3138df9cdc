package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
	ErrInvalidMeridiem  = errors.New("invalid meridiem")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidDuration  = errors.New("invalid duration")
)

// ParseClock12 parses a 12-hour "HH:MM" string plus meridiem into 24-hour
// hour/minute. Hour must be 1..12; "12 AM" maps to 00, "12 PM" stays 12.
func ParseClock12(timeOfDay string, meridiem Meridiem) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(timeOfDay), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected HH:MM, got %q", ErrInvalidTimeOfDay, timeOfDay)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 1 || h > 12 {
		return 0, 0, fmt.Errorf("%w: hour %q out of 1..12", ErrInvalidTimeOfDay, parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("%w: minute %q out of 0..59", ErrInvalidTimeOfDay, parts[1])
	}
	switch meridiem {
	case AM:
		if h == 12 {
			h = 0
		}
	case PM:
		if h != 12 {
			h += 12
		}
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMeridiem, meridiem)
	}
	return h, m, nil
}

// ParseMeridiem normalizes "am"/"AM"/"pm"/"PM" into a Meridiem.
func ParseMeridiem(s string) (Meridiem, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AM":
		return AM, nil
	case "PM":
		return PM, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMeridiem, s)
}

// ParseFrequency normalizes a cadence string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

var durationRe = regexp.MustCompile(`^(\d+)\s*([a-zA-Z]+)$`)

// ParseDuration parses a prescription duration like "2 days", "1 week",
// "3 months" or "1 year". Months count as 30 days and years as 365 days;
// the stored strings carry no more precision than that.
func ParseDuration(s string) (time.Duration, error) {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	const day = 24 * time.Hour
	unit := strings.ToLower(m[2])
	switch {
	case strings.HasPrefix(unit, "day"):
		return time.Duration(n) * day, nil
	case strings.HasPrefix(unit, "week"):
		return time.Duration(n) * 7 * day, nil
	case strings.HasPrefix(unit, "month"):
		return time.Duration(n) * 30 * day, nil
	case strings.HasPrefix(unit, "year"):
		return time.Duration(n) * 365 * day, nil
	}
	return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidDuration, m[2])
}
