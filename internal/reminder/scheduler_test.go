package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dayblocks/internal/apperr"
	"github.com/starford/dayblocks/internal/models"
	"github.com/starford/dayblocks/internal/store"
	"github.com/starford/dayblocks/internal/testutil"
)

type inbox struct {
	mu  sync.Mutex
	got []models.Reminder
}

func (i *inbox) NotifyReminder(r models.Reminder) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.got = append(i.got, r)
}

func (i *inbox) titles() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []string
	for _, r := range i.got {
		out = append(out, r.Title)
	}
	return out
}

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *Scheduler, *inbox) {
	t.Helper()
	db, _ := testutil.TestDB(t)
	box := &inbox{}
	sched := New(db, testutil.Logger(), box,
		WithWindow(30*time.Second),
		WithClock(func() time.Time { return base }))
	return NewService(db, sched), sched, box
}

func TestCheck_FiresInWindowOnce(t *testing.T) {
	svc, sched, box := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", "standup", "", base.Add(time.Minute))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", "lunch", "", base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, sched.Pending())

	assert.Equal(t, 0, sched.Check(ctx, base.Add(30*time.Second)))
	assert.Equal(t, 1, sched.Check(ctx, base.Add(time.Minute+10*time.Second)))
	assert.Equal(t, 0, sched.Check(ctx, base.Add(time.Minute+20*time.Second)))
	assert.Equal(t, []string{"standup"}, box.titles())

	pending, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "lunch", pending[0].Title)
}

// reloader refreshes the scheduler from inside delivery, as a concurrent
// POST /reminders would.
type reloader struct {
	inbox
	sched *Scheduler
	errs  []error
}

func (r *reloader) NotifyReminder(rem models.Reminder) {
	r.inbox.NotifyReminder(rem)
	r.errs = append(r.errs, r.sched.Refresh(context.Background()))
}

func TestCheck_RefreshDuringDeliveryDoesNotRefire(t *testing.T) {
	db, _ := testutil.TestDB(t)
	ctx := context.Background()
	now := base
	box := &reloader{}
	sched := New(db, testutil.Logger(), box,
		WithWindow(30*time.Second),
		WithClock(func() time.Time { return now }))
	box.sched = sched
	svc := NewService(db, sched)

	_, err := svc.Create(ctx, "u1", "standup", "", base.Add(time.Minute))
	require.NoError(t, err)

	now = base.Add(65 * time.Second)
	assert.Equal(t, 1, sched.Check(ctx, now))
	assert.Equal(t, 0, sched.Pending())

	now = base.Add(75 * time.Second)
	assert.Equal(t, 0, sched.Check(ctx, now))
	assert.Equal(t, []string{"standup"}, box.titles())
	for _, err := range box.errs {
		assert.NoError(t, err)
	}
}

type flakyMarker struct {
	store.Reminders
	failures int
}

func (f *flakyMarker) MarkFired(ctx context.Context, id string, at time.Time) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("database is locked")
	}
	return f.Reminders.MarkFired(ctx, id, at)
}

func TestCheck_UnmarkedReminderRetried(t *testing.T) {
	db, _ := testutil.TestDB(t)
	ctx := context.Background()
	repo := &flakyMarker{Reminders: db, failures: 1}
	box := &inbox{}
	sched := New(repo, testutil.Logger(), box,
		WithWindow(30*time.Second),
		WithClock(func() time.Time { return base }))

	_, err := NewService(repo, sched).Create(ctx, "u1", "retry", "", base)
	require.NoError(t, err)

	assert.Equal(t, 0, sched.Check(ctx, base.Add(time.Second)))
	assert.Empty(t, box.titles())
	assert.Equal(t, 1, sched.Pending())

	assert.Equal(t, 1, sched.Check(ctx, base.Add(2*time.Second)))
	assert.Equal(t, []string{"retry"}, box.titles())
}

func TestCheck_DropsStale(t *testing.T) {
	svc, sched, box := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", "missed", "", base.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 0, sched.Check(ctx, base.Add(10*time.Minute)))
	assert.Equal(t, 0, sched.Pending())
	assert.Empty(t, box.titles())
}

func TestRefresh_SkipsFiredAndOld(t *testing.T) {
	svc, sched, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", "old", "", base.Add(-time.Hour))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", "soon", "", base.Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, sched.Refresh(ctx))
	assert.Equal(t, 1, sched.Pending())

	sched.Check(ctx, base.Add(time.Minute))
	require.NoError(t, sched.Refresh(ctx))
	assert.Equal(t, 0, sched.Pending())
}

func TestRun_ChecksUntilCanceled(t *testing.T) {
	db, _ := testutil.TestDB(t)
	box := &inbox{}
	now := time.Now()
	sched := New(db, testutil.Logger(), box, WithInterval(20*time.Millisecond))
	svc := NewService(db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := svc.Create(ctx, "u1", "now", "", now)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	require.Eventually(t, func() bool { return len(box.titles()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestService_Validation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", "  ", "", base)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, "u1", "t", "", time.Time{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, "", "t", "", base)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_UpdateReschedules(t *testing.T) {
	svc, sched, box := setup(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", "standup", "", base)
	require.NoError(t, err)
	assert.Equal(t, 1, sched.Check(ctx, base.Add(time.Second)))

	moved, err := svc.Update(ctx, "u1", r.ID, "standup moved", "room 2", base.Add(10*time.Second))
	require.NoError(t, err)
	assert.Nil(t, moved.FiredAt)
	assert.Equal(t, 1, sched.Pending())
	assert.Equal(t, 1, sched.Check(ctx, base.Add(15*time.Second)))
	assert.Equal(t, []string{"standup", "standup moved"}, box.titles())

	_, err = svc.Update(ctx, "u2", r.ID, "x", "", base)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Update(ctx, "u1", r.ID, "", "", base)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_DeleteScopedToUser(t *testing.T) {
	svc, sched, _ := setup(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", "mine", "", base.Add(time.Minute))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", r.ID), apperr.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", r.ID))
	assert.Equal(t, 0, sched.Pending())
}
