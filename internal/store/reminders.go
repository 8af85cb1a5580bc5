package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/dayblocks/internal/apperr"
	"github.com/starford/dayblocks/internal/models"
)

const reminderColumns = `id, user_id, title, content, remind_time, fired_at, created_at`

// CreateReminder inserts r, assigning its id and creation time.
func (db *DB) CreateReminder(ctx context.Context, r *models.Reminder) error {
	r.ID = uuid.NewString()
	r.CreatedAt = db.now().UTC().Truncate(time.Second)
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO reminders (`+reminderColumns+`)
		VALUES (?, ?, ?, ?, ?, NULL, ?)
	`, r.ID, r.UserID, r.Title, r.Content, r.RemindTime.UTC().Unix(), r.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("store: create reminder: %w", err)
	}
	return nil
}

// ListReminders returns the user's unfired reminders ordered by time.
func (db *DB) ListReminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE user_id = ? AND fired_at IS NULL
		ORDER BY remind_time ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list reminders: %w", err)
	}
	return scanReminders(rows)
}

// ListUnfired returns unfired reminders of all users due at or after since.
func (db *DB) ListUnfired(ctx context.Context, since time.Time) ([]models.Reminder, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE fired_at IS NULL AND remind_time >= ?
		ORDER BY remind_time ASC
	`, since.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("store: list unfired: %w", err)
	}
	return scanReminders(rows)
}

// MarkFired records that the reminder was delivered.
func (db *DB) MarkFired(ctx context.Context, id string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE reminders SET fired_at = ? WHERE id = ? AND fired_at IS NULL
	`, at.UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("store: mark fired: %w", err)
	}
	return nil
}

// UpdateReminder overwrites the title, content and time of one of the
// user's reminders and returns the stored row. Moving the time re-arms a
// reminder that already fired.
func (db *DB) UpdateReminder(ctx context.Context, r models.Reminder) (*models.Reminder, error) {
	at := r.RemindTime.UTC().Unix()
	row := db.conn.QueryRowContext(ctx, `
		UPDATE reminders SET
			title       = ?,
			content     = ?,
			fired_at    = CASE WHEN remind_time = ? THEN fired_at ELSE NULL END,
			remind_time = ?
		WHERE id = ? AND user_id = ?
		RETURNING `+reminderColumns,
		r.Title, r.Content, at, at, r.ID, r.UserID)
	out, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: update reminder: %w", err)
	}
	return out, nil
}

// DeleteReminder removes one of the user's reminders.
func (db *DB) DeleteReminder(ctx context.Context, userID, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("store: delete reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func scanReminder(r rowScanner) (*models.Reminder, error) {
	var (
		rem               models.Reminder
		remindAt, created int64
		fired             sql.NullInt64
	)
	if err := r.Scan(&rem.ID, &rem.UserID, &rem.Title, &rem.Content, &remindAt, &fired, &created); err != nil {
		return nil, err
	}
	rem.RemindTime = time.Unix(remindAt, 0).UTC()
	rem.CreatedAt = time.Unix(created, 0).UTC()
	if fired.Valid {
		t := time.Unix(fired.Int64, 0).UTC()
		rem.FiredAt = &t
	}
	return &rem, nil
}

func scanReminders(rows *sql.Rows) ([]models.Reminder, error) {
	defer rows.Close()
	out := []models.Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan reminder: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
