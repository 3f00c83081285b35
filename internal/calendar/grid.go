// Package calendar builds the month grid the booking widget renders. It is
// pure display geometry: availability itself comes from the booking backend.
package calendar

import (
	"fmt"
	"strconv"
	"time"

	"github.com/belvedhair/booking-widget/internal/salonapi"
)

// Weekdays are the column headers, Monday first.
var Weekdays = []string{"Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"}

var monthNames = []string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// Cell is one slot of the 7-column grid. Empty cells pad the first and last
// week so the grid always renders in whole weeks.
type Cell struct {
	Empty      bool   `json:"empty"`
	Date       string `json:"date,omitempty"` // YYYY-MM-DD
	Day        int    `json:"day,omitempty"`
	Free       int    `json:"free"`
	Selectable bool   `json:"selectable"`
}

// Grid is a fully laid out month view.
type Grid struct {
	Month    string   `json:"month"` // YYYY-MM
	Label    string   `json:"label"` // e.g. "März 2025"
	Weekdays []string `json:"weekdays"`
	Cells    []Cell   `json:"cells"`
}

// Build lays out the given month's day availability into a Monday-start
// 7-column grid. Entries are assumed to arrive in ascending calendar order
// for the month and are placed sequentially; the day number shown in each
// cell is taken from the entry's own date string.
func Build(month string, days []salonapi.DayAvailability) (*Grid, error) {
	first, err := firstOfMonth(month)
	if err != nil {
		return nil, err
	}

	// Re-base so Monday is column 0.
	startWeekday := (int(first.Weekday()) + 6) % 7

	cells := make([]Cell, 0, startWeekday+len(days)+6)
	for i := 0; i < startWeekday; i++ {
		cells = append(cells, Cell{Empty: true})
	}
	for _, d := range days {
		cells = append(cells, Cell{
			Date:       d.Date,
			Day:        dayNumber(d.Date),
			Free:       d.Free,
			Selectable: d.Free > 0,
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, Cell{Empty: true})
	}

	return &Grid{
		Month:    month,
		Label:    fmt.Sprintf("%s %d", monthNames[first.Month()-1], first.Year()),
		Weekdays: Weekdays,
		Cells:    cells,
	}, nil
}

// Selectable reports whether the given date is a pickable day of the grid.
func (g *Grid) Selectable(date string) bool {
	for _, c := range g.Cells {
		if !c.Empty && c.Date == date {
			return c.Selectable
		}
	}
	return false
}

// Prev returns the month one calendar month before the given one.
func Prev(month string) (string, error) {
	return addMonths(month, -1)
}

// Next returns the month one calendar month after the given one.
func Next(month string) (string, error) {
	return addMonths(month, 1)
}

// Current formats t's month as YYYY-MM.
func Current(t time.Time) string {
	return t.Format("2006-01")
}

func addMonths(month string, n int) (string, error) {
	first, err := firstOfMonth(month)
	if err != nil {
		return "", err
	}
	return first.AddDate(0, n, 0).Format("2006-01"), nil
}

func firstOfMonth(month string) (time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid month %q: %w", month, err)
	}
	return t, nil
}

func dayNumber(date string) int {
	if len(date) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(date[len(date)-2:])
	return n
}
