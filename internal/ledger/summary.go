package ledger

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dayblocks/internal/apperr"
	"github.com/starford/dayblocks/internal/models"
)

// GetSummary returns the day's summary, or the zero summary when none exists.
func (s *Service) GetSummary(ctx context.Context, userID, date string) (models.DailySummary, error) {
	if err := checkKey(userID, date); err != nil {
		return models.DailySummary{}, err
	}
	sum, err := s.db.GetSummary(ctx, userID, date)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.DailySummary{UserID: userID, Date: date}, nil
	}
	if err != nil {
		return models.DailySummary{}, apperr.Storage("get summary", err)
	}
	return *sum, nil
}

// PutSummary overwrites the day's summary. The rating must be within 0..5;
// an invalid rating is rejected before anything is written.
func (s *Service) PutSummary(ctx context.Context, userID, date, content string, rating int) (models.DailySummary, error) {
	if err := checkKey(userID, date); err != nil {
		return models.DailySummary{}, err
	}
	if err := validation.Validate(rating,
		validation.Min(models.MinRating),
		validation.Max(models.MaxRating),
	); err != nil {
		return models.DailySummary{}, apperr.Validation("rating: %v", err)
	}

	sum := models.DailySummary{UserID: userID, Date: date, Content: content, Rating: rating}
	if err := s.db.UpsertSummary(ctx, sum); err != nil {
		return models.DailySummary{}, apperr.Storage("put summary", err)
	}
	s.publish(userID, EventSummaryUpdated, date)
	return sum, nil
}
