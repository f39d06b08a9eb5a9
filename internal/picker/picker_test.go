package picker

import (
	"errors"
	"testing"
	"time"

	"craftcal/internal/calendar"
)

var today = time.Date(2026, time.October, 18, 15, 0, 0, 0, time.UTC)

func TestSelectBlocksPastDates(t *testing.T) {
	p := NewDatePicker(today)
	p.Toggle()

	cases := []struct {
		date string
		err  error
	}{
		{"2026-10-17", ErrPastDate},
		{"2025-12-31", ErrPastDate},
		{"2026-10-18", nil},
		{"2026-11-01", nil},
		{"2026-10-32", ErrInvalidDate},
		{"10/20/2026", ErrInvalidDate},
	}
	for _, tc := range cases {
		got, err := p.Select(tc.date)
		if !errors.Is(err, tc.err) {
			t.Errorf("Select(%q) err = %v, want %v", tc.date, err, tc.err)
			continue
		}
		if tc.err == nil && got != tc.date {
			t.Errorf("Select(%q) = %q", tc.date, got)
		}
	}
	if p.Open {
		t.Error("picker still open after a successful select")
	}
}

func TestDaysDisablesPast(t *testing.T) {
	p := NewDatePicker(today)
	cells := p.Days()

	// October 2026 starts on a Thursday.
	if len(cells) != 4+31 {
		t.Fatalf("len = %d", len(cells))
	}
	for _, c := range cells {
		if c.Day == 0 {
			continue
		}
		if wantDisabled := c.Day < 18; c.Disabled != wantDisabled {
			t.Errorf("day %d disabled = %v", c.Day, c.Disabled)
		}
		if c.Today != (c.Day == 18) {
			t.Errorf("day %d today = %v", c.Day, c.Today)
		}
	}

	p.NextMonth()
	for _, c := range p.Days() {
		if c.Disabled {
			t.Errorf("November day %d disabled", c.Day)
		}
	}
}

func TestPrevMonthStopsAtCurrentMonth(t *testing.T) {
	p := NewDatePicker(today)
	p.PrevMonth()
	if p.Shown != (calendar.Cursor{Year: 2026, Month: time.October}) {
		t.Errorf("Shown = %v", p.Shown)
	}
	p.NextMonth()
	p.NextMonth()
	p.NextMonth()
	if p.Shown != (calendar.Cursor{Year: 2027, Month: time.January}) {
		t.Errorf("Shown = %v", p.Shown)
	}
	p.PrevMonth()
	if p.Shown != (calendar.Cursor{Year: 2026, Month: time.December}) {
		t.Errorf("Shown = %v", p.Shown)
	}
}

func TestMonthsComparesYear(t *testing.T) {
	p := NewDatePicker(today)
	p.ShowMonths()

	for _, m := range p.Months() {
		if want := m.Month < time.October; m.Disabled != want {
			t.Errorf("2026 %s disabled = %v", m.Label, m.Disabled)
		}
	}

	// In a later year no month is past, including those numerically
	// before today's month.
	p.NextYear()
	for _, m := range p.Months() {
		if m.Disabled {
			t.Errorf("2027 %s disabled", m.Label)
		}
	}
	if err := p.PickMonth(time.March); err != nil {
		t.Fatalf("PickMonth(March 2027): %v", err)
	}
	if p.View != DayView || p.Shown != (calendar.Cursor{Year: 2027, Month: time.March}) {
		t.Errorf("after pick: view=%v shown=%v", p.View, p.Shown)
	}

	p.ShowMonths()
	p.PrevYear()
	p.PrevYear()
	if p.Shown.Year != 2026 {
		t.Errorf("PrevYear went below current year: %d", p.Shown.Year)
	}
	if err := p.PickMonth(time.January); !errors.Is(err, ErrPastDate) {
		t.Errorf("PickMonth(January 2026) err = %v", err)
	}
}

func TestTimeOptions(t *testing.T) {
	opts := TimeOptions()
	if len(opts) != 24 || opts[0] != "1:00" || opts[1] != "1:30" || opts[23] != "12:30" {
		t.Errorf("options = %v", opts)
	}
	if m := Meridiems(); len(m) != 2 || m[0] != "AM" || m[1] != "PM" {
		t.Errorf("meridiems = %v", m)
	}
}

func TestFormatAndSplitTime(t *testing.T) {
	got, err := FormatTime("2:30", "pm")
	if err != nil || got != "2:30 PM" {
		t.Errorf("FormatTime = %q, %v", got, err)
	}
	for _, bad := range [][2]string{{"2:15", "PM"}, {"13:00", "AM"}, {"2:30", "XM"}, {"", ""}} {
		if _, err := FormatTime(bad[0], bad[1]); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("FormatTime(%q,%q) err = %v", bad[0], bad[1], err)
		}
	}

	slot, mer, err := SplitTime("12:00 AM")
	if err != nil || slot != "12:00" || mer != "AM" {
		t.Errorf("SplitTime = %q %q %v", slot, mer, err)
	}
	if _, _, err := SplitTime("12:00"); err == nil {
		t.Error("SplitTime without meridiem should fail")
	}
}
