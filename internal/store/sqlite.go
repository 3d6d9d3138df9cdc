package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/carewell/medtrack/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single connection: SQLite is a single-writer engine, and the reset
	// transaction relies on statements within a transaction being serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// --- Users ---

func (r *SQLiteRepo) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, timezone, last_reset_at, created_at
		FROM users
		WHERE id = ?`,
		id,
	)

	var (
		u         domain.User
		lastNS    sql.NullString
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Timezone, &lastNS, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	last, err := decodeNullTime(lastNS)
	if err != nil {
		return nil, fmt.Errorf("user %d last_reset_at: %w", id, err)
	}
	u.LastResetAt = last
	created, err := decodeTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("user %d created_at: %w", id, err)
	}
	u.CreatedAt = created
	return &u, nil
}

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Timezone == "" {
		u.Timezone = domain.DefaultZone
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (name, email, timezone, last_reset_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.Timezone, encodeNullTime(u.LastResetAt), encodeTime(u.CreatedAt),
	)
	if err != nil {
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

// --- Medications ---

func (r *SQLiteRepo) ListMedications(ctx context.Context, userID int64) ([]domain.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, dosage, schedule, duration, instructions,
		       is_taken, taken_at, prescribed_at
		FROM medications
		WHERE user_id = ?
		ORDER BY prescribed_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *m)
	}
	return res, rows.Err()
}

func scanMedication(rows *sql.Rows) (*domain.Medication, error) {
	var (
		m            domain.Medication
		takenInt     int
		takenNS      sql.NullString
		prescribedAt string
	)
	if err := rows.Scan(
		&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Schedule, &m.Duration,
		&m.Instructions, &takenInt, &takenNS, &prescribedAt,
	); err != nil {
		return nil, err
	}
	m.IsTaken = takenInt != 0
	taken, err := decodeNullTime(takenNS)
	if err != nil {
		return nil, fmt.Errorf("medication %d taken_at: %w", m.ID, err)
	}
	m.TakenAt = taken
	prescribed, err := decodeTime(prescribedAt)
	if err != nil {
		return nil, fmt.Errorf("medication %d prescribed_at: %w", m.ID, err)
	}
	m.PrescribedAt = prescribed
	return &m, nil
}

func (r *SQLiteRepo) CreateMedication(ctx context.Context, m *domain.Medication) error {
	if m == nil {
		return errors.New("nil medication")
	}
	if m.PrescribedAt.IsZero() {
		m.PrescribedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (
			user_id, name, dosage, schedule, duration, instructions,
			is_taken, taken_at, prescribed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.UserID, m.Name, m.Dosage, m.Schedule, m.Duration, m.Instructions,
		boolToInt(m.IsTaken), encodeNullTime(m.TakenAt), encodeTime(m.PrescribedAt),
	)
	if err != nil {
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}

// SetTaken marks a medication taken (takenAt non-nil) or not taken (nil).
// The userID guard keeps callers from touching another user's rows.
func (r *SQLiteRepo) SetTaken(ctx context.Context, medicationID, userID int64, takenAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET is_taken = ?, taken_at = ?
		WHERE id = ? AND user_id = ?`,
		boolToInt(takenAt != nil), encodeNullTime(takenAt), medicationID, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetTaken performs the once-per-day reset as a single transaction. The
// last_reset_at compare happens on decoded instants inside the transaction, so
// legacy-format values compare correctly against what the caller read.
func (r *SQLiteRepo) ResetTaken(ctx context.Context, userID int64, prev *time.Time, resetAt time.Time, medicationIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var lastNS sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT last_reset_at FROM users WHERE id = ?`, userID,
	).Scan(&lastNS)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	current, err := decodeNullTime(lastNS)
	if err != nil {
		return fmt.Errorf("user %d last_reset_at: %w", userID, err)
	}
	if !sameInstant(current, prev) {
		return ErrResetRaced
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET last_reset_at = ? WHERE id = ?`,
		encodeTime(resetAt), userID,
	); err != nil {
		return err
	}

	if len(medicationIDs) > 0 {
		query := fmt.Sprintf(`
			UPDATE medications
			SET is_taken = 0, taken_at = NULL
			WHERE user_id = ? AND id IN (%s)`,
			placeholders(len(medicationIDs)),
		)
		args := make([]any, 0, len(medicationIDs)+1)
		args = append(args, userID)
		for _, id := range medicationIDs {
			args = append(args, id)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// --- Reminders ---

const reminderColumns = `id, user_id, title, message, time_of_day, meridiem,
	frequency, next_run_at, is_active, medication_id, created_at`

func (r *SQLiteRepo) CreateReminder(ctx context.Context, rem *domain.Reminder) error {
	if rem == nil {
		return errors.New("nil reminder")
	}
	if rem.CreatedAt.IsZero() {
		rem.CreatedAt = time.Now().UTC()
	}
	var medID sql.NullInt64
	if rem.MedicationID != nil {
		medID = sql.NullInt64{Int64: *rem.MedicationID, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (
			user_id, title, message, time_of_day, meridiem, frequency,
			next_run_at, is_active, medication_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.UserID, rem.Title, rem.Message, rem.TimeOfDay, string(rem.Meridiem),
		string(rem.Frequency), encodeNullTime(rem.NextRunAt), boolToInt(rem.IsActive),
		medID, encodeTime(rem.CreatedAt),
	)
	if err != nil {
		return err
	}
	rem.ID, err = res.LastInsertId()
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	var (
		rem       domain.Reminder
		meridiem  string
		frequency string
		nextNS    sql.NullString
		activeInt int
		medID     sql.NullInt64
		createdAt string
	)
	if err := row.Scan(
		&rem.ID, &rem.UserID, &rem.Title, &rem.Message, &rem.TimeOfDay,
		&meridiem, &frequency, &nextNS, &activeInt, &medID, &createdAt,
	); err != nil {
		return nil, err
	}
	rem.Meridiem = domain.Meridiem(meridiem)
	rem.Frequency = domain.Frequency(frequency)
	rem.IsActive = activeInt != 0
	if medID.Valid {
		rem.MedicationID = &medID.Int64
	}
	next, err := decodeNullTime(nextNS)
	if err != nil {
		return nil, fmt.Errorf("reminder %d next_run_at: %w", rem.ID, err)
	}
	rem.NextRunAt = next
	created, err := decodeTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("reminder %d created_at: %w", rem.ID, err)
	}
	rem.CreatedAt = created
	return &rem, nil
}

func (r *SQLiteRepo) GetReminder(ctx context.Context, id int64) (*domain.Reminder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id,
	)
	rem, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rem, err
}

func (r *SQLiteRepo) ListUserReminders(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	return r.listReminders(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
}

func (r *SQLiteRepo) ListActiveReminders(ctx context.Context) ([]domain.Reminder, error) {
	return r.listReminders(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE is_active = 1 ORDER BY id`,
	)
}

func (r *SQLiteRepo) listReminders(ctx context.Context, query string, args ...any) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *rem)
	}
	return res, rows.Err()
}

func (r *SQLiteRepo) SetReminderNextRun(ctx context.Context, id int64, next time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET next_run_at = ? WHERE id = ?`,
		encodeTime(next), id,
	)
	return err
}

// DeactivateReminder soft-deletes a reminder. Idempotent.
func (r *SQLiteRepo) DeactivateReminder(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET is_active = 0 WHERE id = ?`, id,
	)
	return err
}

// --- Notifications ---

func (r *SQLiteRepo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	if n == nil {
		return errors.New("nil notification")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.UserID, n.Title, n.Message, boolToInt(n.IsRead), encodeTime(n.CreatedAt),
	)
	if err != nil {
		return err
	}
	n.ID, err = res.LastInsertId()
	return err
}

func (r *SQLiteRepo) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, user_id, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Notification
	for rows.Next() {
		var (
			n         domain.Notification
			readInt   int
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &readInt, &createdAt); err != nil {
			return nil, err
		}
		n.IsRead = readInt != 0
		created, err := decodeTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("notification %d created_at: %w", n.ID, err)
		}
		n.CreatedAt = created
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r *SQLiteRepo) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`,
		userID,
	)
	return err
}

func (r *SQLiteRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`,
		userID,
	).Scan(&count)
	return count, err
}
