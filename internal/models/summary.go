package models

import "time"

// Rating bounds for a daily summary.
const (
	MinRating = 0
	MaxRating = 5
)

// DailySummary is one reflective note per user per day.
type DailySummary struct {
	UserID    string    `json:"-"`
	Date      string    `json:"-"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	UpdatedAt time.Time `json:"-"`
}
