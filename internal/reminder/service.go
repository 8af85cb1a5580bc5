package reminder

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dayblocks/internal/apperr"
	"github.com/starford/dayblocks/internal/models"
	"github.com/starford/dayblocks/internal/store"
)

// Service manages a user's reminders and keeps the scheduler in sync with
// every mutation.
type Service struct {
	repo  store.Reminders
	sched *Scheduler
}

// NewService creates a reminder service. sched may be nil.
func NewService(repo store.Reminders, sched *Scheduler) *Service {
	return &Service{repo: repo, sched: sched}
}

// List returns the user's pending reminders ordered by time.
func (s *Service) List(ctx context.Context, userID string) ([]models.Reminder, error) {
	if userID == "" {
		return nil, apperr.Validation("user id is required")
	}
	list, err := s.repo.ListReminders(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("list reminders", err)
	}
	return list, nil
}

// Create stores a new reminder for the user.
func (s *Service) Create(ctx context.Context, userID, title, content string, at time.Time) (models.Reminder, error) {
	r, err := newReminder(userID, title, content, at)
	if err != nil {
		return models.Reminder{}, err
	}
	if err := s.repo.CreateReminder(ctx, &r); err != nil {
		return models.Reminder{}, apperr.Storage("create reminder", err)
	}
	s.refresh(ctx)
	return r, nil
}

// Update replaces the title, content and time of one of the user's
// reminders. Moving the time re-arms a reminder that already fired.
func (s *Service) Update(ctx context.Context, userID, id, title, content string, at time.Time) (models.Reminder, error) {
	r, err := newReminder(userID, title, content, at)
	if err != nil {
		return models.Reminder{}, err
	}
	r.ID = id
	updated, err := s.repo.UpdateReminder(ctx, r)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Reminder{}, err
	}
	if err != nil {
		return models.Reminder{}, apperr.Storage("update reminder", err)
	}
	s.refresh(ctx)
	return *updated, nil
}

// Delete removes one of the user's reminders.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.DeleteReminder(ctx, userID, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if err != nil {
		return apperr.Storage("delete reminder", err)
	}
	s.refresh(ctx)
	return nil
}

func newReminder(userID, title, content string, at time.Time) (models.Reminder, error) {
	r := models.Reminder{
		UserID:     userID,
		Title:      strings.TrimSpace(title),
		Content:    content,
		RemindTime: at.UTC().Truncate(time.Second),
	}
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.RemindTime, validation.Required),
	); err != nil {
		return models.Reminder{}, apperr.Validation("%v", err)
	}
	return r, nil
}

func (s *Service) refresh(ctx context.Context) {
	if s.sched == nil {
		return
	}
	if err := s.sched.Refresh(ctx); err != nil {
		s.sched.log.Error("reminder refresh failed", slog.String("error", err.Error()))
	}
}
