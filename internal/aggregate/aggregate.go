// Package aggregate computes the representative color of each tracked day.
package aggregate

import "github.com/starford/dayblocks/internal/models"

// dayTally counts colors for one date, remembering first-seen order.
type dayTally struct {
	order  []string
	counts map[string]int
}

func (t *dayTally) add(color string) {
	if _, seen := t.counts[color]; !seen {
		t.order = append(t.order, color)
	}
	t.counts[color]++
}

// winner returns the color with the strictly highest count; on a tie the
// color seen first wins.
func (t *dayTally) winner() string {
	best, top := "", 0
	for _, c := range t.order {
		if n := t.counts[c]; n > top {
			best, top = c, n
		}
	}
	return best
}

// Dominant returns, for every date that has at least one colored or
// legacy-status row, its representative color. Dates with no such row are
// absent. rows order is the scan order used for tie-breaking.
func Dominant(rows []models.TimeBlock) map[string]string {
	byDate := make(map[string]*dayTally)
	for _, r := range rows {
		color := r.State().Color()
		if color == "" {
			continue
		}
		t, ok := byDate[r.Date]
		if !ok {
			t = &dayTally{counts: make(map[string]int)}
			byDate[r.Date] = t
		}
		t.add(color)
	}

	out := make(map[string]string, len(byDate))
	for date, t := range byDate {
		out[date] = t.winner()
	}
	return out
}
