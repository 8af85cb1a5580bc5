package store

import (
	"context"
	"time"

	"github.com/starford/dayblocks/internal/models"
)

// Ledger defines the persistence operations the ledger service needs.
// Consumers should depend on this interface rather than the concrete *DB.
type Ledger interface {
	ListDay(ctx context.Context, userID, date string) ([]models.TimeBlock, error)
	ScanColored(ctx context.Context, userID string) ([]models.TimeBlock, error)
	UpsertNote(ctx context.Context, userID, date string, index int, note string) (*models.TimeBlock, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error
	GetSummary(ctx context.Context, userID, date string) (*models.DailySummary, error)
	UpsertSummary(ctx context.Context, s models.DailySummary) error
	Ping(ctx context.Context) error
}

// Reminders defines the reminder persistence operations.
type Reminders interface {
	CreateReminder(ctx context.Context, r *models.Reminder) error
	ListReminders(ctx context.Context, userID string) ([]models.Reminder, error)
	ListUnfired(ctx context.Context, since time.Time) ([]models.Reminder, error)
	MarkFired(ctx context.Context, id string, at time.Time) error
	UpdateReminder(ctx context.Context, r models.Reminder) (*models.Reminder, error)
	DeleteReminder(ctx context.Context, userID, id string) error
}

// Verify *DB satisfies both interfaces at compile time.
var (
	_ Ledger    = (*DB)(nil)
	_ Reminders = (*DB)(nil)
)
