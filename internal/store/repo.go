package store

import (
	"context"
	"errors"
	"time"

	"github.com/carewell/medtrack/internal/domain"
)

var (
	// ErrNotFound is returned when a requested row does not exist or is not
	// owned by the given user.
	ErrNotFound = errors.New("not found")

	// ErrResetRaced is returned by ResetTaken when the user's last_reset_at no
	// longer matches the value the caller observed, meaning another reset won.
	ErrResetRaced = errors.New("reset raced")
)

// Repo defines storage operations for users, medications, reminders and
// notifications. All instants cross this boundary as UTC time.Time values;
// legacy rows stored without offset information are normalized on read (see
// decodeTime in models.go).
type Repo interface {
	// Users.
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error

	// Medications.
	ListMedications(ctx context.Context, userID int64) ([]domain.Medication, error)
	CreateMedication(ctx context.Context, m *domain.Medication) error
	SetTaken(ctx context.Context, medicationID, userID int64, takenAt *time.Time) error

	// ResetTaken atomically advances the user's last_reset_at to resetAt and
	// clears the taken flag on the given medications, as one transaction. The
	// update is a compare-and-set guarded by prev (the last_reset_at value the
	// caller read); a mismatch aborts with ErrResetRaced and changes nothing.
	ResetTaken(ctx context.Context, userID int64, prev *time.Time, resetAt time.Time, medicationIDs []int64) error

	// Reminders. Cancellation is a soft deactivation, rows are never removed.
	CreateReminder(ctx context.Context, r *domain.Reminder) error
	GetReminder(ctx context.Context, id int64) (*domain.Reminder, error)
	ListUserReminders(ctx context.Context, userID int64) ([]domain.Reminder, error)
	ListActiveReminders(ctx context.Context) ([]domain.Reminder, error)
	SetReminderNextRun(ctx context.Context, id int64, next time.Time) error
	DeactivateReminder(ctx context.Context, id int64) error

	// Notifications (the durable pull surface).
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
	UnreadCount(ctx context.Context, userID int64) (int, error)

	Close() error
}
