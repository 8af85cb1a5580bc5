// Package models defines the domain types for the day ledger.
package models

import "time"

const (
	// BlocksPerDay is the fixed number of slots in one day.
	BlocksPerDay = 96
	// BlockMinutes is the length of one slot.
	BlockMinutes = 15
	// DateLayout is the calendar-day format used for every date key.
	DateLayout = "2006-01-02"
)

// TimeBlock is one persisted slot of one user's day.
// A slot with no meaningful state is never stored.
type TimeBlock struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	Date       string    `json:"date"`
	BlockIndex int       `json:"blockIndex"`
	Status     *int      `json:"status"`
	Color      *string   `json:"color"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
}

// State returns the tagged slot state of the block.
func (b TimeBlock) State() SlotState {
	return StateOf(b.Status, b.Color)
}

// EmptyBlock returns the unset default for the given index.
func EmptyBlock(date string, index int) TimeBlock {
	return TimeBlock{Date: date, BlockIndex: index}
}

// Slot is the client-supplied descriptor for one index of a day.
type Slot struct {
	Status *int    `json:"status"`
	Color  *string `json:"color"`
	Note   string  `json:"note"`
}

// Significant reports whether the slot carries any state worth persisting.
func (s Slot) Significant() bool {
	return s.Status != nil || (s.Color != nil && *s.Color != "") || s.Note != ""
}

// Block converts the slot into a row for the given owner and position.
// An empty color is stored as NULL.
func (s Slot) Block(userID, date string, index int) TimeBlock {
	b := TimeBlock{
		UserID:     userID,
		Date:       date,
		BlockIndex: index,
		Status:     s.Status,
		Note:       s.Note,
	}
	if s.Color != nil && *s.Color != "" {
		c := *s.Color
		b.Color = &c
	}
	return b
}

// FillDay expands sparse rows into a full ordered day.
// Rows outside 0..95 are ignored.
func FillDay(date string, rows []TimeBlock) []TimeBlock {
	day := make([]TimeBlock, BlocksPerDay)
	for i := range day {
		day[i] = EmptyBlock(date, i)
	}
	for _, r := range rows {
		if r.BlockIndex < 0 || r.BlockIndex >= BlocksPerDay {
			continue
		}
		day[r.BlockIndex] = r
	}
	return day
}
