package picker

import (
	"errors"
	"time"

	"craftcal/internal/calendar"
)

// ErrPastDate is returned when a date before today is selected.
var ErrPastDate = errors.New("picker: date is in the past")

// ErrInvalidDate is returned for strings that are not YYYY-MM-DD dates.
var ErrInvalidDate = errors.New("picker: invalid date")

// View is which grid the date picker shows.
type View int

const (
	DayView View = iota
	MonthView
)

// DatePicker is a month-grid date selector that refuses past dates.
type DatePicker struct {
	today    calendar.Cursor
	todayDay int

	Shown    calendar.Cursor
	View     View
	Open     bool
	Selected string
}

// DayCell is one cell of the day view.
type DayCell struct {
	Day      int // 0 for leading placeholders
	Date     string
	Disabled bool
	Today    bool
	Selected bool
}

// MonthCell is one cell of the month view.
type MonthCell struct {
	Month    time.Month
	Label    string
	Disabled bool
	Current  bool
}

// NewDatePicker creates a closed picker showing today's month. Only the
// calendar date of today matters.
func NewDatePicker(today time.Time) *DatePicker {
	return &DatePicker{
		today:    calendar.CursorOf(today),
		todayDay: today.Day(),
		Shown:    calendar.CursorOf(today),
	}
}

// Toggle opens or closes the picker. Opening always starts in day view.
func (p *DatePicker) Toggle() {
	p.Open = !p.Open
	if p.Open {
		p.View = DayView
	}
}

// PrevMonth shows the previous month, but never a month before today's,
// which would contain nothing selectable.
func (p *DatePicker) PrevMonth() {
	prev := p.Shown.Prev()
	if prev.Before(p.today) {
		return
	}
	p.Shown = prev
}

// NextMonth shows the following month.
func (p *DatePicker) NextMonth() {
	p.Shown = p.Shown.Next()
}

// ShowMonths switches to the month view of the shown year.
func (p *DatePicker) ShowMonths() {
	p.View = MonthView
}

// PrevYear and NextYear page the month view.
func (p *DatePicker) PrevYear() {
	if p.Shown.Year-1 < p.today.Year {
		return
	}
	p.Shown.Year--
}

func (p *DatePicker) NextYear() {
	p.Shown.Year++
}

// PickMonth jumps to month m of the shown year and returns to day view.
// Past months are rejected.
func (p *DatePicker) PickMonth(m time.Month) error {
	c := calendar.Cursor{Year: p.Shown.Year, Month: m}
	if p.monthPast(c) {
		return ErrPastDate
	}
	p.Shown = c
	p.View = DayView
	return nil
}

// Days returns the day view of the shown month, laid out like the main
// calendar grid, with past days disabled.
func (p *DatePicker) Days() []DayCell {
	grid := calendar.Grid(p.Shown)
	cells := make([]DayCell, len(grid))
	for i, g := range grid {
		if g.Placeholder() {
			continue
		}
		date := p.Shown.Date(g.Day)
		cells[i] = DayCell{
			Day:      g.Day,
			Date:     date,
			Disabled: p.dayPast(p.Shown, g.Day),
			Today:    p.Shown == p.today && g.Day == p.todayDay,
			Selected: date == p.Selected,
		}
	}
	return cells
}

// Months returns the twelve months of the shown year. A month is disabled
// when it lies entirely before today's month, comparing year first.
func (p *DatePicker) Months() []MonthCell {
	out := make([]MonthCell, 0, 12)
	for m := time.January; m <= time.December; m++ {
		c := calendar.Cursor{Year: p.Shown.Year, Month: m}
		out = append(out, MonthCell{
			Month:    m,
			Label:    m.String()[:3],
			Disabled: p.monthPast(c),
			Current:  c == p.Shown,
		})
	}
	return out
}

// IsPast reports whether the ISO date lies strictly before today.
func (p *DatePicker) IsPast(date string) (bool, error) {
	y, m, d, ok := calendar.ParseDate(date)
	if !ok || len(date) != len(time.DateOnly) {
		return false, ErrInvalidDate
	}
	return p.dayPast(calendar.Cursor{Year: y, Month: m}, d), nil
}

// Select picks a date, closes the picker and returns the ISO string.
func (p *DatePicker) Select(date string) (string, error) {
	past, err := p.IsPast(date)
	if err != nil {
		return "", err
	}
	if past {
		return "", ErrPastDate
	}
	p.Selected = date
	p.Open = false
	if y, m, _, ok := calendar.ParseDate(date); ok {
		p.Shown = calendar.Cursor{Year: y, Month: m}
	}
	return date, nil
}

func (p *DatePicker) monthPast(c calendar.Cursor) bool {
	return c.Before(p.today)
}

func (p *DatePicker) dayPast(c calendar.Cursor, day int) bool {
	if c.Before(p.today) {
		return true
	}
	return c == p.today && day < p.todayDay
}
