package ledger

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dayblocks/internal/aggregate"
	"github.com/starford/dayblocks/internal/apperr"
	"github.com/starford/dayblocks/internal/dates"
	"github.com/starford/dayblocks/internal/models"
)

// GetDay returns all 96 slots of the day. Slots without a stored row are
// filled with the empty default.
func (s *Service) GetDay(ctx context.Context, userID, date string) ([]models.TimeBlock, error) {
	if err := checkKey(userID, date); err != nil {
		return nil, err
	}
	rows, err := s.db.ListDay(ctx, userID, date)
	if err != nil {
		return nil, apperr.Storage("get day", err)
	}
	return models.FillDay(date, rows), nil
}

// UpsertNote sets the note of one slot without touching the others.
func (s *Service) UpsertNote(ctx context.Context, userID, date string, index int, note string) (*models.TimeBlock, error) {
	if err := checkKey(userID, date); err != nil {
		return nil, err
	}
	if err := validation.Validate(index, validation.Min(0), validation.Max(models.BlocksPerDay-1)); err != nil {
		return nil, apperr.Validation("blockIndex: %v", err)
	}
	b, err := s.db.UpsertNote(ctx, userID, date, index, note)
	if err != nil {
		return nil, apperr.Storage("upsert note", err)
	}
	s.publish(userID, EventNoteUpdated, date)
	return b, nil
}

// Stats returns the representative color of every tracked day of the user.
// It is recomputed from the rows on every call.
func (s *Service) Stats(ctx context.Context, userID string) (map[string]string, error) {
	if userID == "" {
		return nil, apperr.Validation("user id is required")
	}
	rows, err := s.db.ScanColored(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("stats", err)
	}
	return aggregate.Dominant(rows), nil
}

func checkKey(userID, date string) error {
	if userID == "" {
		return apperr.Validation("user id is required")
	}
	if _, err := dates.Parse(date); err != nil {
		return apperr.Validation("%v", err)
	}
	return nil
}
