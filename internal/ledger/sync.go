package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dayblocks/internal/apperr"
	"github.com/starford/dayblocks/internal/models"
	"github.com/starford/dayblocks/internal/store"
)

// ReplaceResult describes what a full-day replacement persisted.
type ReplaceResult struct {
	Inserted int   `json:"inserted"`
	Skipped  []int `json:"skipped,omitempty"`
	Fallback bool  `json:"fallback"`
}

// DecodeSlots parses a day payload. Anything other than a JSON array of
// slot objects is a validation error.
func DecodeSlots(body []byte) ([]models.Slot, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, apperr.Validation("payload must be an array of %d slots", models.BlocksPerDay)
	}
	var slots []models.Slot
	if err := json.Unmarshal(trimmed, &slots); err != nil {
		return nil, apperr.Validation("invalid slot array: %v", err)
	}
	return slots, nil
}

// validateSlots checks the payload shape only. Unknown status values are
// stored as given and aggregate as the neutral color.
func validateSlots(slots []models.Slot) error {
	if err := validation.Validate(slots,
		validation.Required,
		validation.Length(models.BlocksPerDay, models.BlocksPerDay),
	); err != nil {
		return apperr.Validation("slots: %v", err)
	}
	return nil
}

// ReplaceDay makes the stored day equal to slots. Inside one transaction
// every existing row of the day is deleted and the significant slots are
// inserted with one statement. If that statement fails on a constraint the
// rows are inserted one at a time; rows that still fail on a constraint are
// logged and skipped. Any other failure aborts the transaction.
// On any error before commit the previous day is left untouched.
func (s *Service) ReplaceDay(ctx context.Context, userID, date string, slots []models.Slot) (ReplaceResult, error) {
	if err := checkKey(userID, date); err != nil {
		return ReplaceResult{}, err
	}
	if err := validateSlots(slots); err != nil {
		return ReplaceResult{}, err
	}

	var rows []models.TimeBlock
	for i, sl := range slots {
		if sl.Significant() {
			rows = append(rows, sl.Block(userID, date, i))
		}
	}

	at := s.now()
	var res ReplaceResult
	err := s.db.WithTx(ctx, func(ctx context.Context, q store.DBTX) error {
		res = ReplaceResult{}
		if _, err := store.DeleteDay(ctx, q, userID, date); err != nil {
			return err
		}
		bulkErr := store.InsertBlocks(ctx, q, rows, at)
		if bulkErr == nil {
			res.Inserted = len(rows)
			return nil
		}
		if !store.IsConstraintViolation(bulkErr) {
			return bulkErr
		}

		s.logger.Warn("bulk insert failed, inserting blocks one by one",
			slog.String("user_id", userID),
			slog.String("date", date),
			slog.Bool("conflict", errors.Is(bulkErr, apperr.ErrConflict)),
			slog.String("error", bulkErr.Error()))
		res.Fallback = true
		for _, b := range rows {
			if err := store.InsertBlock(ctx, q, b, at); err != nil {
				if !store.IsConstraintViolation(err) {
					return err
				}
				s.logger.Warn("skipping block",
					slog.String("user_id", userID),
					slog.String("date", date),
					slog.Int("block_index", b.BlockIndex),
					slog.String("error", err.Error()))
				res.Skipped = append(res.Skipped, b.BlockIndex)
				continue
			}
			res.Inserted++
		}
		return nil
	})
	if err != nil {
		return ReplaceResult{}, apperr.Storage("replace day", err)
	}

	s.publish(userID, EventDayReplaced, date)
	return res, nil
}
