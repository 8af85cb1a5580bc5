package ledger

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dayblocks/internal/apperr"
	"github.com/starford/dayblocks/internal/models"
	"github.com/starford/dayblocks/internal/testutil"
)

type recordedEvent struct{ user, kind, date string }

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) PublishDayEvent(userID, kind, date string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{userID, kind, date})
}

func newService(t *testing.T) (*Service, *recorder, string) {
	t.Helper()
	db, path := testutil.TestDB(t)
	rec := &recorder{}
	return NewService(db, testutil.Logger(), WithPublisher(rec)), rec, path
}

func ptr[T any](v T) *T { return &v }

func emptyDay() []models.Slot {
	return make([]models.Slot, models.BlocksPerDay)
}

func significantIndexes(day []models.TimeBlock) []int {
	var out []int
	for _, b := range day {
		if b.Status != nil || b.Color != nil || b.Note != "" {
			out = append(out, b.BlockIndex)
		}
	}
	return out
}

func TestGetDay_EmptyDayReturnsDefaults(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	day, err := svc.GetDay(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	require.Len(t, day, models.BlocksPerDay)
	for i, b := range day {
		assert.Equal(t, i, b.BlockIndex)
		assert.Nil(t, b.Status)
		assert.Nil(t, b.Color)
		assert.Equal(t, "", b.Note)
	}

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, stats, "2024-03-01")
}

func TestReplaceDay_SingleSignificantSlot(t *testing.T) {
	svc, rec, _ := newService(t)
	ctx := context.Background()

	slots := emptyDay()
	slots[40] = models.Slot{Color: ptr("#ff0000")}
	res, err := svc.ReplaceDay(ctx, "u1", "2024-03-01", slots)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.False(t, res.Fallback)

	day, err := svc.GetDay(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []int{40}, significantIndexes(day))
	assert.NotEmpty(t, day[40].ID, "slot 40 should be a stored row")
	assert.Empty(t, day[39].ID, "slot 39 should be a default")

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", stats["2024-03-01"])

	require.Len(t, rec.events, 1)
	assert.Equal(t, recordedEvent{"u1", EventDayReplaced, "2024-03-01"}, rec.events[0])
}

func TestReplaceDay_SparseRoundTrip(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	slots := emptyDay()
	slots[0] = models.Slot{Status: ptr(0)}
	slots[5] = models.Slot{Color: ptr("#00ff00"), Note: "run"}
	slots[17] = models.Slot{Note: "call mum"}
	slots[30] = models.Slot{Color: ptr("")}
	slots[95] = models.Slot{Status: ptr(1), Color: ptr("blue")}

	_, err := svc.ReplaceDay(ctx, "u1", "2024-03-01", slots)
	require.NoError(t, err)

	day, err := svc.GetDay(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5, 17, 95}, significantIndexes(day))
	assert.Equal(t, 0, *day[0].Status)
	assert.Equal(t, "#00ff00", *day[5].Color)
	assert.Equal(t, "run", day[5].Note)
	assert.Equal(t, "call mum", day[17].Note)
	assert.Nil(t, day[30].Color)
	assert.Equal(t, "blue", *day[95].Color)
	assert.Equal(t, 1, *day[95].Status)
}

func TestReplaceDay_Idempotent(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	slots := emptyDay()
	slots[3] = models.Slot{Color: ptr("red"), Note: "a"}
	slots[60] = models.Slot{Status: ptr(2)}

	strip := func(day []models.TimeBlock) []models.TimeBlock {
		out := make([]models.TimeBlock, len(day))
		for i, b := range day {
			b.ID = ""
			b.CreatedAt, b.UpdatedAt = time.Time{}, time.Time{}
			out[i] = b
		}
		return out
	}

	_, err := svc.ReplaceDay(ctx, "u1", "2024-03-01", slots)
	require.NoError(t, err)
	first, err := svc.GetDay(ctx, "u1", "2024-03-01")
	require.NoError(t, err)

	_, err = svc.ReplaceDay(ctx, "u1", "2024-03-01", slots)
	require.NoError(t, err)
	second, err := svc.GetDay(ctx, "u1", "2024-03-01")
	require.NoError(t, err)

	assert.Equal(t, strip(first), strip(second))
}

func TestReplaceDay_IsolatedPerUser(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	other := emptyDay()
	other[1] = models.Slot{Color: ptr("green")}
	_, err := svc.ReplaceDay(ctx, "u2", "2024-03-01", other)
	require.NoError(t, err)

	mine := emptyDay()
	mine[2] = models.Slot{Color: ptr("red")}
	_, err = svc.ReplaceDay(ctx, "u1", "2024-03-01", mine)
	require.NoError(t, err)
	_, err = svc.ReplaceDay(ctx, "u1", "2024-03-01", emptyDay())
	require.NoError(t, err)

	day, err := svc.GetDay(ctx, "u2", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, significantIndexes(day))

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestReplaceDay_LegacyStatusAggregatesAsGreen(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	slots := emptyDay()
	slots[8] = models.Slot{Status: ptr(2)}
	_, err := svc.ReplaceDay(ctx, "u1", "2024-03-01", slots)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "#52c41a", stats["2024-03-01"])
}

func TestReplaceDay_UnknownStatusStoredAsNeutral(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	slots := emptyDay()
	slots[0] = models.Slot{Status: ptr(-1)}
	slots[1] = models.Slot{Status: ptr(7), Color: ptr(strings.Repeat("a", 100))}
	slots[2] = models.Slot{Status: ptr(9)}
	res, err := svc.ReplaceDay(ctx, "u1", "2024-03-02", slots)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)

	day, err := svc.GetDay(ctx, "u1", "2024-03-02")
	require.NoError(t, err)
	require.NotNil(t, day[0].Status)
	assert.Equal(t, -1, *day[0].Status)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "#f0f0f0", stats["2024-03-02"])
}

func TestStats_TieBreakFirstSeen(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	slots := emptyDay()
	for i := 0; i < 3; i++ {
		slots[i] = models.Slot{Color: ptr("red")}
	}
	for i := 3; i < 6; i++ {
		slots[i] = models.Slot{Color: ptr("blue")}
	}
	_, err := svc.ReplaceDay(ctx, "u1", "2024-03-01", slots)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		stats, err := svc.Stats(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "red", stats["2024-03-01"])
	}
}

func TestUpsertNoteThenReplaceRemovesRow(t *testing.T) {
	svc, rec, _ := newService(t)
	ctx := context.Background()

	b, err := svc.UpsertNote(ctx, "u1", "2024-03-01", 10, "dentist")
	require.NoError(t, err)
	assert.Equal(t, 10, b.BlockIndex)
	assert.Nil(t, b.Status)
	assert.Nil(t, b.Color)

	day, err := svc.GetDay(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []int{10}, significantIndexes(day))

	_, err = svc.ReplaceDay(ctx, "u1", "2024-03-01", emptyDay())
	require.NoError(t, err)
	day, err = svc.GetDay(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Empty(t, significantIndexes(day))

	require.Len(t, rec.events, 2)
	assert.Equal(t, EventNoteUpdated, rec.events[0].kind)
}

func TestUpsertNote_RejectsBadIndex(t *testing.T) {
	svc, _, _ := newService(t)
	for _, idx := range []int{-1, 96, 1000} {
		_, err := svc.UpsertNote(context.Background(), "u1", "2024-03-01", idx, "x")
		assert.ErrorIs(t, err, apperr.ErrValidation, "index %d", idx)
	}
}

func TestReplaceDay_ValidationLeavesDayIntact(t *testing.T) {
	svc, rec, _ := newService(t)
	ctx := context.Background()

	slots := emptyDay()
	slots[4] = models.Slot{Color: ptr("red")}
	_, err := svc.ReplaceDay(ctx, "u1", "2024-03-01", slots)
	require.NoError(t, err)

	_, err = svc.ReplaceDay(ctx, "u1", "2024-03-01", slots[:10])
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.ReplaceDay(ctx, "u1", "2024-03-01", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.ReplaceDay(ctx, "u1", "03/01/2024", slots)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.ReplaceDay(ctx, "", "2024-03-01", slots)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	day, err := svc.GetDay(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []int{4}, significantIndexes(day))
	assert.Len(t, rec.events, 1)
}

func TestReplaceDay_FallbackSkipsFailingRows(t *testing.T) {
	svc, _, path := newService(t)
	ctx := context.Background()

	testutil.Exec(t, path, `
		CREATE TRIGGER reject_marked BEFORE INSERT ON time_blocks
		WHEN NEW.note = 'reject'
		BEGIN
			SELECT RAISE(ABORT, 'rejected by trigger');
		END;`)

	slots := emptyDay()
	slots[1] = models.Slot{Color: ptr("red")}
	slots[2] = models.Slot{Color: ptr("red"), Note: "reject"}
	slots[3] = models.Slot{Status: ptr(1)}

	res, err := svc.ReplaceDay(ctx, "u1", "2024-03-01", slots)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, []int{2}, res.Skipped)

	day, err := svc.GetDay(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, significantIndexes(day))
}

func TestDecodeSlots(t *testing.T) {
	_, err := DecodeSlots([]byte(`{"status":1}`))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = DecodeSlots([]byte(``))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = DecodeSlots([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	slots, err := DecodeSlots([]byte(` [{"status":2,"color":null,"note":""},{"color":"#fff"}]`))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 2, *slots[0].Status)
	assert.Nil(t, slots[0].Color)
	assert.Equal(t, "#fff", *slots[1].Color)
}

func TestSummary_DefaultsAndOverwrite(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	sum, err := svc.GetSummary(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "", sum.Content)
	assert.Equal(t, 0, sum.Rating)

	_, err = svc.PutSummary(ctx, "u1", "2024-03-01", "productive", 4)
	require.NoError(t, err)
	_, err = svc.PutSummary(ctx, "u1", "2024-03-01", "tired", 2)
	require.NoError(t, err)

	sum, err = svc.GetSummary(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "tired", sum.Content)
	assert.Equal(t, 2, sum.Rating)

	other, err := svc.GetSummary(ctx, "u2", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "", other.Content)
}

func TestSummary_RatingBound(t *testing.T) {
	svc, rec, _ := newService(t)
	ctx := context.Background()

	_, err := svc.PutSummary(ctx, "u1", "2024-03-01", "fine", 3)
	require.NoError(t, err)

	for _, rating := range []int{6, -1} {
		_, err := svc.PutSummary(ctx, "u1", "2024-03-01", "overwritten?", rating)
		assert.ErrorIs(t, err, apperr.ErrValidation, "rating %d", rating)
	}

	sum, err := svc.GetSummary(ctx, "u1", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "fine", sum.Content)
	assert.Equal(t, 3, sum.Rating)
	assert.Len(t, rec.events, 1)
}
