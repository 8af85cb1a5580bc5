package models

import "time"

// Reminder is a timed notification owned by one user.
type Reminder struct {
	ID         string     `json:"id"`
	UserID     string     `json:"-"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	RemindTime time.Time  `json:"remindTime"`
	FiredAt    *time.Time `json:"firedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Label is a named color preset.
type Label struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}
