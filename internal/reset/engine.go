package reset

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carewell/medtrack/internal/domain"
	"github.com/carewell/medtrack/internal/store"
)

// Repo is the slice of storage the engine needs.
type Repo interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListMedications(ctx context.Context, userID int64) ([]domain.Medication, error)
	ResetTaken(ctx context.Context, userID int64, prev *time.Time, resetAt time.Time, medicationIDs []int64) error
}

// Status says what ResetIfNeeded actually did.
type Status int

const (
	// StatusSkipped: the user was already reset today (or lost a race to a
	// concurrent caller that did it).
	StatusSkipped Status = iota
	// StatusReset: this call performed the reset.
	StatusReset
)

func (s Status) String() string {
	if s == StatusReset {
		return "reset"
	}
	return "skipped"
}

// Outcome is the result of a reset decision.
type Outcome struct {
	Status  Status
	Cleared int // medications whose taken flag was cleared
}

// Engine clears adherence flags exactly once per local calendar day per user.
// Every read path that serves a medication list goes through ResetIfNeeded;
// no caller implements its own variant of this decision.
type Engine struct {
	repo Repo
	log  *zap.Logger
	now  func() time.Time

	mu    sync.Mutex
	users map[int64]*sync.Mutex
}

// New creates an engine using the real clock.
func New(repo Repo, log *zap.Logger) *Engine {
	return &Engine{
		repo:  repo,
		log:   log,
		now:   time.Now,
		users: make(map[int64]*sync.Mutex),
	}
}

// NewWithClock is New with an injectable clock for tests.
func NewWithClock(repo Repo, log *zap.Logger, now func() time.Time) *Engine {
	e := New(repo, log)
	e.now = now
	return e
}

// userLock returns the per-user serialization point, creating it on first use.
func (e *Engine) userLock(userID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.users[userID]
	if !ok {
		l = &sync.Mutex{}
		e.users[userID] = l
	}
	return l
}

// ResetIfNeeded clears the taken flag on the user's non-expired medications if
// the user has not been reset yet on today's local calendar date. Concurrent
// calls for the same user are serialized in-process, and the storage update is
// additionally a compare-and-set on last_reset_at, so at most one caller
// observes StatusReset.
func (e *Engine) ResetIfNeeded(ctx context.Context, userID int64) (Outcome, error) {
	l := e.userLock(userID)
	l.Lock()
	defer l.Unlock()

	u, err := e.repo.GetUser(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}

	now := e.now().UTC()
	loc := e.location(u)

	if u.LastResetAt != nil && domain.SameLocalDay(*u.LastResetAt, now, loc) {
		return Outcome{Status: StatusSkipped}, nil
	}

	meds, err := e.repo.ListMedications(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}

	var ids []int64
	for i := range meds {
		m := &meds[i]
		// Expired prescriptions are left untouched; their cleanup is a
		// separate housekeeping concern.
		if m.IsTaken && !m.Expired(now) {
			ids = append(ids, m.ID)
		}
	}

	err = e.repo.ResetTaken(ctx, userID, u.LastResetAt, now, ids)
	if errors.Is(err, store.ErrResetRaced) {
		// Another caller performed the reset between our read and write.
		return Outcome{Status: StatusSkipped}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	e.log.Info("adherence reset",
		zap.Int64("userID", userID),
		zap.Int("cleared", len(ids)),
		zap.String("tz", loc.String()),
	)
	return Outcome{Status: StatusReset, Cleared: len(ids)}, nil
}

// location resolves the user's zone, logging when falling back. An invalid
// stored timezone must never fail the reset decision.
func (e *Engine) location(u *domain.User) *time.Location {
	if u.Timezone != "" {
		if _, err := time.LoadLocation(u.Timezone); err != nil {
			e.log.Warn("invalid user timezone, using fallback",
				zap.Int64("userID", u.ID),
				zap.String("tz", u.Timezone),
				zap.Error(err),
			)
		}
	}
	return domain.LoadUserLocation(u.Timezone)
}
