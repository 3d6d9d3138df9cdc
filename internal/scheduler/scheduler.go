package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carewell/medtrack/internal/domain"
	"github.com/carewell/medtrack/internal/store"
)

// fireTimeout bounds the repository work done for a single firing.
const fireTimeout = 30 * time.Second

// Timer is an armed one-shot delay. Stop reports whether it was stopped
// before firing.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for the scheduler so cadence logic is testable
// without real delays.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Repo is the slice of storage the scheduler needs.
type Repo interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	CreateReminder(ctx context.Context, r *domain.Reminder) error
	GetReminder(ctx context.Context, id int64) (*domain.Reminder, error)
	ListActiveReminders(ctx context.Context) ([]domain.Reminder, error)
	SetReminderNextRun(ctx context.Context, id int64, next time.Time) error
	DeactivateReminder(ctx context.Context, id int64) error
	CreateNotification(ctx context.Context, n *domain.Notification) error
}

// Publisher receives the notification produced by a firing. hub.Hub
// implements it.
type Publisher interface {
	Publish(userID int64, n domain.Notification)
}

// Scheduler owns the cadence of user reminders: one armed one-shot timer per
// active reminder, each firing producing a notification and arming exactly
// the next occurrence. The chain survives a failed notification write; only
// cancellation ends it.
type Scheduler struct {
	repo  Repo
	pub   Publisher
	log   *zap.Logger
	clock Clock

	mu     sync.Mutex
	timers map[int64]Timer
	closed bool
}

// New creates a scheduler using the wall clock.
func New(repo Repo, pub Publisher, log *zap.Logger) *Scheduler {
	return NewWithClock(repo, pub, log, realClock{})
}

// NewWithClock is New with an injectable clock.
func NewWithClock(repo Repo, pub Publisher, log *zap.Logger, clock Clock) *Scheduler {
	return &Scheduler{
		repo:   repo,
		pub:    pub,
		log:    log,
		clock:  clock,
		timers: make(map[int64]Timer),
	}
}

// Validate checks a reminder's time/meridiem/frequency fields. Malformed
// input is rejected here, synchronously, so it can never resurface as a
// scheduling failure after a timer is armed.
func Validate(r *domain.Reminder) error {
	if _, _, err := domain.ParseClock12(r.TimeOfDay, r.Meridiem); err != nil {
		return err
	}
	if _, err := domain.ParseFrequency(string(r.Frequency)); err != nil {
		return err
	}
	return nil
}

// Create validates, persists and arms a new reminder.
func (s *Scheduler) Create(ctx context.Context, r *domain.Reminder) error {
	if err := Validate(r); err != nil {
		return err
	}
	r.IsActive = true
	next, err := s.computeNextRun(ctx, r)
	if err != nil {
		return err
	}
	r.NextRunAt = &next
	if err := s.repo.CreateReminder(ctx, r); err != nil {
		return err
	}
	s.arm(r.ID, next)
	return nil
}

// Schedule arms a one-shot timer for an existing reminder, computing and
// persisting next_run_at first if it is missing. Re-arming an already armed
// reminder replaces the previous timer.
func (s *Scheduler) Schedule(ctx context.Context, r *domain.Reminder) error {
	if !r.IsActive {
		return nil
	}
	if r.NextRunAt == nil {
		next, err := s.computeNextRun(ctx, r)
		if err != nil {
			return err
		}
		if err := s.repo.SetReminderNextRun(ctx, r.ID, next); err != nil {
			return err
		}
		r.NextRunAt = &next
	}
	s.arm(r.ID, *r.NextRunAt)
	return nil
}

// Cancel disarms the reminder's timer and soft-deactivates it. Idempotent:
// cancelling an unknown or already cancelled reminder is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, reminderID int64) error {
	s.mu.Lock()
	if t, ok := s.timers[reminderID]; ok {
		t.Stop()
		delete(s.timers, reminderID)
	}
	s.mu.Unlock()
	return s.repo.DeactivateReminder(ctx, reminderID)
}

// LoadAll arms every active reminder from storage. Called once at startup.
func (s *Scheduler) LoadAll(ctx context.Context) error {
	reminders, err := s.repo.ListActiveReminders(ctx)
	if err != nil {
		return err
	}
	for i := range reminders {
		r := &reminders[i]
		if err := s.Schedule(ctx, r); err != nil {
			s.log.Error("schedule reminder on startup failed",
				zap.Int64("reminderID", r.ID), zap.Error(err))
			continue
		}
	}
	s.log.Info("reminders armed", zap.Int("count", len(reminders)))
	return nil
}

// Close disarms every timer. In-flight firings finish on their own.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// computeNextRun resolves the owner's zone and computes the next occurrence
// strictly after the current instant.
func (s *Scheduler) computeNextRun(ctx context.Context, r *domain.Reminder) (time.Time, error) {
	loc := s.userLocation(ctx, r.UserID)
	next, err := domain.NextRun(r.TimeOfDay, r.Meridiem, r.Frequency, s.clock.Now().UTC(), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("reminder %d: %w", r.ID, err)
	}
	return next, nil
}

func (s *Scheduler) userLocation(ctx context.Context, userID int64) *time.Location {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.log.Warn("load reminder owner failed, using fallback zone",
			zap.Int64("userID", userID), zap.Error(err))
		return domain.LoadUserLocation("")
	}
	return domain.LoadUserLocation(u.Timezone)
}

// arm replaces the reminder's timer with one firing at the given instant.
func (s *Scheduler) arm(reminderID int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if prev, ok := s.timers[reminderID]; ok {
		prev.Stop()
	}
	d := at.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	s.timers[reminderID] = s.clock.AfterFunc(d, func() { s.onFire(reminderID) })
}

// onFire runs when a reminder's timer expires: emit one notification, then
// arm exactly the next occurrence. A reminder cancelled since arming simply
// expires here without effect.
func (s *Scheduler) onFire(reminderID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	s.mu.Lock()
	delete(s.timers, reminderID)
	s.mu.Unlock()

	r, err := s.repo.GetReminder(ctx, reminderID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error("reload fired reminder failed", zap.Int64("reminderID", reminderID), zap.Error(err))
		}
		return
	}
	if !r.IsActive {
		return
	}

	n := &domain.Notification{
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		// A lost single notification is acceptable; a lost reminder chain is
		// not. Do not publish what was not stored, but keep rescheduling.
		s.log.Error("persist notification failed", zap.Int64("reminderID", reminderID), zap.Error(err))
	} else {
		s.pub.Publish(r.UserID, *n)
	}

	next, err := s.computeNextRun(ctx, r)
	if err != nil {
		// Only corrupt stored data gets here; creation validated the fields.
		s.log.Error("compute next run failed, chain stopped",
			zap.Int64("reminderID", reminderID), zap.Error(err))
		return
	}
	if err := s.repo.SetReminderNextRun(ctx, reminderID, next); err != nil {
		s.log.Error("persist next run failed", zap.Int64("reminderID", reminderID), zap.Error(err))
	}
	s.arm(reminderID, next)

	s.log.Debug("reminder fired",
		zap.Int64("reminderID", reminderID),
		zap.Int64("userID", r.UserID),
		zap.Time("next", next),
	)
}
