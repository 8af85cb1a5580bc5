package api

import (
	"time"

	"github.com/starford/dayblocks/internal/models"
)

// TimeBlock is one slot of a day in API responses.
type TimeBlock = models.TimeBlock

// Slot is one element of the PUT day payload.
type Slot = models.Slot

// ReplaceDayResponse is returned after a full-day replacement.
type ReplaceDayResponse struct {
	OK       bool  `json:"ok" example:"true" validate:"required"`
	Inserted int   `json:"inserted" example:"12" validate:"required"`
	Fallback bool  `json:"fallback" example:"false" validate:"required"`
	Skipped  []int `json:"skipped,omitempty"`
}

// NoteRequest is the request body for updating a slot note.
type NoteRequest struct {
	Note string `json:"note" example:"call the dentist"`
}

// StatsResponse maps each tracked date to its dominant color.
type StatsResponse map[string]string

// SummaryRequest is the request body for writing a daily summary.
type SummaryRequest struct {
	Content string `json:"content" example:"Focused morning"`
	Rating  int    `json:"rating" example:"4"`
}

// SummaryResponse is the daily summary of one date.
type SummaryResponse struct {
	Content string `json:"content" validate:"required"`
	Rating  int    `json:"rating" example:"4" validate:"required"`
}

// ReminderRequest is the request body for creating a reminder.
type ReminderRequest struct {
	Title      string    `json:"title" example:"Stand-up" validate:"required"`
	Content    string    `json:"content"`
	RemindTime time.Time `json:"remindTime" validate:"required"`
}

// Reminder is a pending reminder in API responses.
type Reminder = models.Reminder

// Label is a named color preset.
type Label = models.Label
