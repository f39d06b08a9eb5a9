package calendar

import (
	"fmt"
	"time"
)

// Cursor is the year+month the calendar displays. It carries no day or
// time-of-day, so no consumer can accidentally depend on one.
type Cursor struct {
	Year  int
	Month time.Month
}

const cursorLayout = "2006-01"

// CursorOf returns the cursor for the calendar month containing t, read in
// t's own location.
func CursorOf(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: t.Month()}
}

// ParseCursor parses the "YYYY-MM" query form.
func ParseCursor(s string) (Cursor, error) {
	t, err := time.Parse(cursorLayout, s)
	if err != nil {
		return Cursor{}, fmt.Errorf("calendar: invalid month %q: %w", s, err)
	}
	return CursorOf(t), nil
}

// String returns the "YYYY-MM" form.
func (c Cursor) String() string {
	return c.first().Format(cursorLayout)
}

// Title returns the heading form, e.g. "October 2026".
func (c Cursor) Title() string {
	return c.first().Format("January 2006")
}

// first is day 1 of the month at midnight UTC. UTC is only a carrier for
// date arithmetic here; no instant in time is implied.
func (c Cursor) first() time.Time {
	return time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Prev returns the previous month. January rolls back to December of the
// previous year through time.Date normalization.
func (c Cursor) Prev() Cursor {
	return CursorOf(time.Date(c.Year, c.Month-1, 1, 0, 0, 0, 0, time.UTC))
}

// Next returns the following month. The target is pinned to day 1 so a
// 31st never overflows into the month after.
func (c Cursor) Next() Cursor {
	return CursorOf(time.Date(c.Year, c.Month+1, 1, 0, 0, 0, 0, time.UTC))
}

// FirstWeekday is the weekday of day 1 (Sunday = 0).
func (c Cursor) FirstWeekday() time.Weekday {
	return c.first().Weekday()
}

// DaysIn returns the number of days in the month.
func (c Cursor) DaysIn() int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(c.Year, c.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date returns the ISO date string for day d of the month.
func (c Cursor) Date(d int) string {
	return fmt.Sprintf("%04d-%02d-%02d", c.Year, int(c.Month), d)
}

// Contains reports whether the given calendar year and month are this cursor.
func (c Cursor) Contains(year int, month time.Month) bool {
	return c.Year == year && c.Month == month
}

// Before reports whether c is an earlier month than o.
func (c Cursor) Before(o Cursor) bool {
	if c.Year != o.Year {
		return c.Year < o.Year
	}
	return c.Month < o.Month
}
