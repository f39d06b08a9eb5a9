package calendar

import (
	"strings"
	"time"

	appLog "craftcal/internal/log"
	"craftcal/internal/model"
)

// Bucket assigns every event in m whose own date falls in the cursor month
// to its day-of-month. The result is always a fresh mapping; order within a
// day follows the mapping's date order, then fetch order.
func Bucket(m model.Mapping, c Cursor) model.Buckets {
	out := model.Buckets{}
	for _, key := range m.Dates() {
		for _, ev := range m[key] {
			y, mo, d, ok := ParseDate(ev.Date)
			if !ok {
				appLog.Debug("calendar: skipping event with unparseable date", "name", ev.Name, "date", ev.Date)
				continue
			}
			if !c.Contains(y, mo) {
				continue
			}
			out[d] = append(out[d], ev)
		}
	}
	return out
}

// ParseDate reads the calendar components of a "YYYY-MM-DD" string.
// Surrounding whitespace and a trailing "T..." time part are ignored. The components are taken as
// written; no timezone conversion happens, so a date never shifts by a day.
func ParseDate(s string) (year int, month time.Month, day int, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10]
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return 0, 0, 0, false
	}
	return t.Year(), t.Month(), t.Day(), true
}
