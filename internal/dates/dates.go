// Package dates parses the calendar-day keys used across the ledger.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/starford/dayblocks/internal/models"
)

var natural = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// Parse validates a strict YYYY-MM-DD key and returns it unchanged.
func Parse(s string) (string, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil || t.Format(models.DateLayout) != s {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return s, nil
}

// Resolve accepts a strict key or a natural phrase such as "today" or
// "yesterday", interpreted relative to now.
func Resolve(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("date is required")
	}
	if d, err := Parse(s); err == nil {
		return d, nil
	}
	switch strings.ToLower(s) {
	case "today", "now":
		return Today(now), nil
	}
	r, err := natural.Parse(s, now)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", s, err)
	}
	if r == nil {
		return "", fmt.Errorf("unrecognised date %q", s)
	}
	return Today(r.Time), nil
}

// Today returns the key of the current day in now's location.
func Today(now time.Time) string {
	return now.Format(models.DateLayout)
}
