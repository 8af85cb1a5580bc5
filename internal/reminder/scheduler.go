// Package reminder fires user reminders when their time arrives.
package reminder

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/starford/dayblocks/internal/models"
	"github.com/starford/dayblocks/internal/store"
)

// DefaultInterval is used for both the poll interval and the firing window
// when none is configured.
const DefaultInterval = 30 * time.Second

// Notifier delivers a due reminder to its owner.
type Notifier interface {
	NotifyReminder(r models.Reminder)
}

// Scheduler keeps the pending reminders in memory and checks them on a ticker.
// A reminder fires once when a check observes it within [now-window, now];
// reminders that are already older than the window are dropped unfired.
//
// A reminder is marked fired in storage before it is delivered, and Refresh
// never interleaves with that step, so a reload cannot bring back a
// reminder that is being delivered.
type Scheduler struct {
	repo     store.Reminders
	log      *slog.Logger
	notifier Notifier
	interval time.Duration
	window   time.Duration
	now      func() time.Time

	// syncMu serializes Refresh with the claim step of Check.
	syncMu sync.Mutex

	mu      sync.Mutex
	pending map[string]models.Reminder
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithWindow sets how late a reminder may still fire.
func WithWindow(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler.
func New(repo store.Reminders, log *slog.Logger, notifier Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:     repo,
		log:      log,
		notifier: notifier,
		interval: DefaultInterval,
		window:   DefaultInterval,
		now:      time.Now,
		pending:  make(map[string]models.Reminder),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loads the pending reminders, checks once and then checks on every tick
// until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.log.Error("reminder refresh failed", slog.String("error", err.Error()))
	}
	s.Check(ctx, s.now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scheduler stopping")
			return nil
		case <-ticker.C:
			s.Check(ctx, s.now())
		}
	}
}

// Refresh replaces the pending set with the unfired reminders that can
// still fire.
func (s *Scheduler) Refresh(ctx context.Context) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	list, err := s.repo.ListUnfired(ctx, s.now().Add(-s.window))
	if err != nil {
		return err
	}
	pending := make(map[string]models.Reminder, len(list))
	for _, r := range list {
		pending[r.ID] = r
	}

	s.mu.Lock()
	s.pending = pending
	s.mu.Unlock()

	s.log.Debug("reminders loaded", slog.Int("pending", len(pending)))
	return nil
}

// Pending returns the number of reminders waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Check fires every pending reminder due at now and returns how many fired.
// A reminder that cannot be marked fired stays pending and is retried on the
// next check.
func (s *Scheduler) Check(ctx context.Context, now time.Time) int {
	due := s.claim(ctx, now)
	for _, r := range due {
		s.notifier.NotifyReminder(r)
	}
	if len(due) > 0 {
		s.log.Info("reminders fired", slog.Int("count", len(due)))
	}
	return len(due)
}

// claim takes the due reminders out of the pending set and persists them as
// fired. Only the claimed reminders are returned, in time order.
func (s *Scheduler) claim(ctx context.Context, now time.Time) []models.Reminder {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	var due []models.Reminder
	s.mu.Lock()
	for id, r := range s.pending {
		late := now.Sub(r.RemindTime)
		switch {
		case late < 0:
			continue
		case late <= s.window:
			due = append(due, r)
		default:
			s.log.Warn("dropping stale reminder",
				slog.String("reminder_id", id),
				slog.String("user_id", r.UserID),
				slog.Time("remind_time", r.RemindTime))
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].RemindTime.Before(due[j].RemindTime) })
	claimed := due[:0]
	for _, r := range due {
		if err := s.repo.MarkFired(ctx, r.ID, now); err != nil {
			s.log.Error("mark reminder fired failed",
				slog.String("reminder_id", r.ID),
				slog.String("error", err.Error()))
			s.mu.Lock()
			s.pending[r.ID] = r
			s.mu.Unlock()
			continue
		}
		claimed = append(claimed, r)
	}
	return claimed
}
