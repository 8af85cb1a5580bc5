// Package ledger implements the per-user day time-block ledger: full-day
// replacement, per-slot notes, calendar statistics and daily summaries.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/dayblocks/internal/models"
	"github.com/starford/dayblocks/internal/store"
)

// Ledger is the operation set exposed to transports.
type Ledger interface {
	GetDay(ctx context.Context, userID, date string) ([]models.TimeBlock, error)
	ReplaceDay(ctx context.Context, userID, date string, slots []models.Slot) (ReplaceResult, error)
	UpsertNote(ctx context.Context, userID, date string, index int, note string) (*models.TimeBlock, error)
	Stats(ctx context.Context, userID string) (map[string]string, error)
	GetSummary(ctx context.Context, userID, date string) (models.DailySummary, error)
	PutSummary(ctx context.Context, userID, date, content string, rating int) (models.DailySummary, error)
	Ready(ctx context.Context) error
}

// Event kinds published after successful writes.
const (
	EventDayReplaced    = "day.replaced"
	EventNoteUpdated    = "note.updated"
	EventSummaryUpdated = "summary.updated"
)

// Publisher receives change notifications for a user's day.
type Publisher interface {
	PublishDayEvent(userID, kind, date string)
}

// Service coordinates the store for ledger operations.
type Service struct {
	db     store.Ledger
	logger *slog.Logger
	pub    Publisher
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the change notification sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ledger service.
func NewService(db store.Ledger, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{db: db, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Ledger = (*Service)(nil)

// Ready reports whether the backing store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Service) publish(userID, kind, date string) {
	if s.pub != nil {
		s.pub.PublishDayEvent(userID, kind, date)
	}
}
