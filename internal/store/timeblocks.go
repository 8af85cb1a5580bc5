package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/dayblocks/internal/apperr"
	"github.com/starford/dayblocks/internal/models"
)

const blockColumns = `id, user_id, date, block_index, status, color, note, created_at, updated_at`

// ListDay returns the stored rows of one user's day ordered by block index.
// An empty day yields an empty slice and no error.
func (db *DB) ListDay(ctx context.Context, userID, date string) ([]models.TimeBlock, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+blockColumns+`
		FROM time_blocks
		WHERE user_id = ? AND date = ?
		ORDER BY block_index ASC
	`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("store: list day: %w", err)
	}
	return scanBlocks(rows)
}

// ScanColored returns every row of the user that carries a color or a
// legacy status, ordered by date then block index.
func (db *DB) ScanColored(ctx context.Context, userID string) ([]models.TimeBlock, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+blockColumns+`
		FROM time_blocks
		WHERE user_id = ? AND (color IS NOT NULL OR status IS NOT NULL)
		ORDER BY date ASC, block_index ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: scan colored: %w", err)
	}
	return scanBlocks(rows)
}

// UpsertNote sets the note of a single slot, creating the row with no
// status or color when it does not exist. Other slots are untouched.
func (db *DB) UpsertNote(ctx context.Context, userID, date string, index int, note string) (*models.TimeBlock, error) {
	now := db.unixNow()
	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO time_blocks (`+blockColumns+`)
		VALUES (?, ?, ?, ?, NULL, NULL, ?, ?, ?)
		ON CONFLICT(user_id, date, block_index) DO UPDATE SET
			note       = excluded.note,
			updated_at = excluded.updated_at
		RETURNING `+blockColumns,
		uuid.NewString(), userID, date, index, note, now, now)
	b, err := scanBlock(row)
	if err != nil {
		return nil, fmt.Errorf("store: upsert note: %w", err)
	}
	return b, nil
}

// DeleteDay removes every row of one user's day.
func DeleteDay(ctx context.Context, q DBTX, userID, date string) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM time_blocks WHERE user_id = ? AND date = ?`, userID, date)
	if err != nil {
		return 0, fmt.Errorf("store: delete day: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// InsertBlocks writes all rows with a single multi-row statement.
func InsertBlocks(ctx context.Context, q DBTX, blocks []models.TimeBlock, at time.Time) error {
	if len(blocks) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO time_blocks (` + blockColumns + `) VALUES `)
	args := make([]any, 0, len(blocks)*9)
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, blockArgs(b, at)...)
	}
	if _, err := q.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("store: bulk insert: %w", classify(err))
	}
	return nil
}

// InsertBlock writes a single row.
func InsertBlock(ctx context.Context, q DBTX, b models.TimeBlock, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO time_blocks (`+blockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, blockArgs(b, at)...)
	if err != nil {
		return fmt.Errorf("store: insert block %d: %w", b.BlockIndex, classify(err))
	}
	return nil
}

// classify tags unique violations with apperr.ErrConflict.
func classify(err error) error {
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", apperr.ErrConflict, err)
	}
	return err
}

func blockArgs(b models.TimeBlock, at time.Time) []any {
	id := b.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := at.UTC().Unix()
	return []any{id, b.UserID, b.Date, b.BlockIndex, nullInt(b.Status), nullString(b.Color), b.Note, ts, ts}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(r rowScanner) (*models.TimeBlock, error) {
	var (
		b                models.TimeBlock
		status           sql.NullInt64
		color            sql.NullString
		created, updated int64
	)
	if err := r.Scan(&b.ID, &b.UserID, &b.Date, &b.BlockIndex, &status, &color, &b.Note, &created, &updated); err != nil {
		return nil, err
	}
	b.Status = intPtr(status)
	b.Color = stringPtr(color)
	b.CreatedAt = time.Unix(created, 0).UTC()
	b.UpdatedAt = time.Unix(updated, 0).UTC()
	return &b, nil
}

func scanBlocks(rows *sql.Rows) ([]models.TimeBlock, error) {
	defer rows.Close()
	out := []models.TimeBlock{}
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan block: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
