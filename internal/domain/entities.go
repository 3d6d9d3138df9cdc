package domain

import "time"

// Frequency is the cadence of a reminder.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Meridiem marks the half of the day for a 12-hour clock value.
type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

// User represents an account tracked by the adherence engine.
type User struct {
	ID          int64
	Name        string
	Email       string
	Timezone    string     // IANA zone id; DefaultZone when empty
	LastResetAt *time.Time // UTC, nullable; never moves backward once set
	CreatedAt   time.Time  // UTC
}

// Medication is a single prescribed medication with its daily taken flag.
type Medication struct {
	ID           int64
	UserID       int64
	Name         string
	Dosage       string
	Schedule     string // free-form dosing schedule, e.g. "twice a day"
	Duration     string // duration grammar, e.g. "2 weeks"
	Instructions string
	IsTaken      bool
	TakenAt      *time.Time // UTC; nil iff IsTaken is false
	PrescribedAt time.Time  // UTC
}

// Expired reports whether the prescription window has lapsed at now.
// An unparseable duration never expires the medication.
func (m *Medication) Expired(now time.Time) bool {
	d, err := ParseDuration(m.Duration)
	if err != nil {
		return false
	}
	return m.PrescribedAt.Add(d).Before(now)
}

// Reminder is a user-defined recurring reminder.
type Reminder struct {
	ID           int64
	UserID       int64
	Title        string
	Message      string
	TimeOfDay    string // 12-hour "HH:MM"
	Meridiem     Meridiem
	Frequency    Frequency
	NextRunAt    *time.Time // UTC; required while active
	IsActive     bool
	MedicationID *int64 // optional link to a medication
	CreatedAt    time.Time
}

// Notification is a single feed entry delivered to a user.
type Notification struct {
	ID        int64
	UserID    int64
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time // UTC
}
