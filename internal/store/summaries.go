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

// GetSummary returns the stored summary or apperr.ErrNotFound.
func (db *DB) GetSummary(ctx context.Context, userID, date string) (*models.DailySummary, error) {
	s := models.DailySummary{UserID: userID, Date: date}
	var updated int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT content, rating, updated_at
		FROM daily_summaries
		WHERE user_id = ? AND date = ?
	`, userID, date).Scan(&s.Content, &s.Rating, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get summary: %w", err)
	}
	s.UpdatedAt = time.Unix(updated, 0).UTC()
	return &s, nil
}

// UpsertSummary creates or overwrites the summary for one user's day.
func (db *DB) UpsertSummary(ctx context.Context, s models.DailySummary) error {
	now := db.unixNow()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO daily_summaries (id, user_id, date, content, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			content    = excluded.content,
			rating     = excluded.rating,
			updated_at = excluded.updated_at
	`, uuid.NewString(), s.UserID, s.Date, s.Content, s.Rating, now, now)
	if err != nil {
		return fmt.Errorf("store: upsert summary: %w", err)
	}
	return nil
}
